package api

import (
	"net/http"

	"github.com/TimurManjosov/interceptor/internal/engine"
	"github.com/TimurManjosov/interceptor/internal/operator"
)

// handleEvent decides whether a chat event may proceed. Evaluation failures
// still answer 200 with a deny so callers can fail closed without parsing
// error bodies.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev engine.Event
	if !decodeJSON(w, r, &ev) {
		return
	}
	if ev.Platform == "" || ev.UserID == "" {
		fields := map[string]string{}
		if ev.Platform == "" {
			fields["platform"] = "Platform is required"
		}
		if ev.UserID == "" {
			fields["userId"] = "User ID is required"
		}
		ValidationError(w, r, "Validation failed", fields)
		return
	}

	res, err := s.interceptor.Intercept(r.Context(), ev)
	if err != nil {
		// Intercept has already logged; the result is a deny.
		res.Allowed = false
		res.Reason = engine.ReasonError
	}
	writeJSON(w, http.StatusOK, res)
}

// handleOperatorMessage feeds a chat message to the operator console. A
// message the console does not handle comes back with handled=false and
// should continue through the event path.
func (s *Server) handleOperatorMessage(w http.ResponseWriter, r *http.Request) {
	var msg operator.Message
	if !decodeJSON(w, r, &msg) {
		return
	}

	reply, err := s.console.Handle(r.Context(), msg)
	if err != nil {
		s.logger.Error().Err(err).
			Str("platform", msg.Platform).
			Str("user", msg.UserID).
			Msg("operator message failed")
		InternalError(w, r, "Failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
