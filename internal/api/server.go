// Package api exposes rule-set management, event decisions and the operator
// console over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/interceptor/internal/audit"
	"github.com/TimurManjosov/interceptor/internal/auth"
	"github.com/TimurManjosov/interceptor/internal/engine"
	"github.com/TimurManjosov/interceptor/internal/operator"
	"github.com/TimurManjosov/interceptor/internal/session"
	"github.com/TimurManjosov/interceptor/internal/store"
	"github.com/TimurManjosov/interceptor/internal/telemetry"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Deps holds the collaborators a Server routes requests to.
type Deps struct {
	Store          store.Store
	Interceptor    *engine.Interceptor
	Console        *operator.Console
	Sessions       *operator.Sessions
	Admins         *session.AdminSet
	Auth           *auth.Authenticator
	Audit          *audit.Service // optional
	Logger         zerolog.Logger
	RateLimitPerIP int // requests per minute, 0 disables
}

type Server struct {
	store          store.Store
	interceptor    *engine.Interceptor
	console        *operator.Console
	sessions       *operator.Sessions
	admins         *session.AdminSet
	auth           *auth.Authenticator
	audit          *audit.Service
	logger         zerolog.Logger
	rateLimitPerIP int
}

func NewServer(d Deps) *Server {
	return &Server{
		store:          d.Store,
		interceptor:    d.Interceptor,
		console:        d.Console,
		sessions:       d.Sessions,
		admins:         d.Admins,
		auth:           d.Auth,
		audit:          d.Audit,
		logger:         d.Logger.With().Str("component", "api").Logger(),
		rateLimitPerIP: d.RateLimitPerIP,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(telemetry.Middleware)
	r.Use(middleware.Timeout(5 * time.Second))
	if s.rateLimitPerIP > 0 {
		r.Use(httprate.Limit(s.rateLimitPerIP, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(RateLimitedError),
		))
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		// admin: rule-set management
		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth(auth.RoleAdmin, s.authFailed))
			r.Get("/rulesets", s.handleListRuleSets)
			r.Post("/rulesets", s.handleCreateRuleSet)
			r.Get("/rulesets/{id}", s.handleGetRuleSet)
			r.Delete("/rulesets/{id}", s.handleDeleteRuleSet)
			r.Get("/sessions", s.handleSessions)
		})

		// client: chat traffic
		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth(auth.RoleClient, s.authFailed))
			r.Post("/events", s.handleEvent)
			r.Post("/operator/messages", s.handleOperatorMessage)
		})
	})

	return r
}

// authFailed records the rejection and answers with the structured error.
func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if s.audit != nil {
		s.audit.Log(audit.NewEventBuilder(r).
			ForResource("route", r.URL.Path).
			WithAction(audit.ActionAuthFailed).
			Failure(msg).
			Build())
	}
	if status == http.StatusForbidden {
		ForbiddenError(w, r, msg)
		return
	}
	UnauthorizedError(w, r, msg)
}

// decodeJSON reads a size-limited JSON body into v. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, "Request body too large")
			return false
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON")
		return false
	}
	return true
}
