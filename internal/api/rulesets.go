package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TimurManjosov/interceptor/internal/audit"
	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/store"
	"github.com/TimurManjosov/interceptor/internal/validation"
)

type createRuleSetRequest struct {
	Name    string     `json:"name"`
	Mode    string     `json:"mode,omitempty"`    // defaults to whitelist
	Rule    rules.Rule `json:"rule,omitempty"`    // defaults to empty
	Enabled *bool      `json:"enabled,omitempty"` // defaults to true
}

type listRuleSetsResponse struct {
	RuleSets []store.RuleSet `json:"ruleSets"`
}

type sessionsResponse struct {
	Active     int      `json:"active"`
	TTLSeconds int      `json:"ttlSeconds"`
	Admins     []string `json:"admins"`
}

// handleListRuleSets returns every rule set in id order. Optional query
// parameters: mode=whitelist|blacklist, enabled=true|false.
func (s *Server) handleListRuleSets(w http.ResponseWriter, r *http.Request) {
	var filter store.Filter
	fields := map[string]string{}

	if raw := r.URL.Query().Get("mode"); raw != "" {
		mode := rules.Mode(raw)
		if !rules.ValidMode(mode) {
			fields["mode"] = "Mode must be whitelist or blacklist"
		}
		filter.Mode = &mode
	}
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			fields["enabled"] = "Enabled must be true or false"
		}
		filter.Enabled = &enabled
	}
	if len(fields) > 0 {
		ValidationError(w, r, "Invalid filter", fields)
		return
	}

	sets, err := s.store.Query(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list rule sets")
		InternalError(w, r, "Failed to load rule sets")
		return
	}
	if sets == nil {
		sets = []store.RuleSet{}
	}
	writeJSON(w, http.StatusOK, listRuleSetsResponse{RuleSets: sets})
}

func (s *Server) handleCreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var req createRuleSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := validation.ValidateRuleSet(validation.RuleSetParams{
		Name: req.Name,
		Mode: req.Mode,
		Rule: req.Rule,
	})
	if !result.Valid {
		ValidationError(w, r, "Validation failed", result.Errors)
		return
	}

	params := store.DefaultCreateParams(strings.TrimSpace(req.Name))
	if req.Mode != "" {
		params.Mode = rules.Mode(req.Mode)
	}
	if req.Rule != nil {
		params.Rule = req.Rule
	}
	if req.Enabled != nil {
		params.Enabled = *req.Enabled
	}

	rs, err := s.store.Create(r.Context(), params)
	if err != nil {
		s.logger.Error().Err(err).Msg("create rule set")
		InternalError(w, r, "Failed to create rule set")
		return
	}

	s.logger.Info().Int64("rule_set", rs.ID).Str("name", rs.Name).Msg("rule set created")
	s.logAudit(audit.NewEventBuilder(r).
		ForResource(audit.ResourceTypeRuleSet, strconv.FormatInt(rs.ID, 10)).
		WithAction(audit.ActionCreated).
		WithAfterState(ruleSetState(rs)))

	writeJSON(w, http.StatusCreated, rs)
}

func (s *Server) handleGetRuleSet(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleSetID(w, r)
	if !ok {
		return
	}
	rs, err := store.Get(r.Context(), s.store, id)
	if errors.Is(err, store.ErrNotFound) {
		NotFoundError(w, r, "Rule set not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("rule_set", id).Msg("get rule set")
		InternalError(w, r, "Failed to load rule set")
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// handleDeleteRuleSet removes a rule set and ends any edit session holding it.
func (s *Server) handleDeleteRuleSet(w http.ResponseWriter, r *http.Request) {
	id, ok := ruleSetID(w, r)
	if !ok {
		return
	}
	before, err := store.Get(r.Context(), s.store, id)
	if errors.Is(err, store.ErrNotFound) {
		NotFoundError(w, r, "Rule set not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("rule_set", id).Msg("get rule set")
		InternalError(w, r, "Failed to load rule set")
		return
	}

	if err := s.store.Delete(r.Context(), store.ByID(id)); err != nil {
		s.logger.Error().Err(err).Int64("rule_set", id).Msg("delete rule set")
		InternalError(w, r, "Failed to delete rule set")
		return
	}
	if s.console != nil {
		s.console.ReleaseRuleSet(id)
	}

	s.logger.Info().Int64("rule_set", id).Msg("rule set deleted")
	s.logAudit(audit.NewEventBuilder(r).
		ForResource(audit.ResourceTypeRuleSet, strconv.FormatInt(id, 10)).
		WithAction(audit.ActionDeleted).
		WithBeforeState(ruleSetState(before)))

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	resp := sessionsResponse{Admins: s.admins.List()}
	if resp.Admins == nil {
		resp.Admins = []string{}
	}
	if s.sessions != nil {
		resp.Active = s.sessions.ActiveCount()
		resp.TTLSeconds = int(s.sessions.TTL().Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

func ruleSetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, result := validation.ParseID(chi.URLParam(r, "id"))
	if !result.Valid {
		BadRequestError(w, r, ErrCodeInvalidID, result.First("id"))
		return 0, false
	}
	return id, true
}

func (s *Server) logAudit(b *audit.EventBuilder) {
	if s.audit == nil {
		return
	}
	s.audit.Log(b.Build())
}

func ruleSetState(rs store.RuleSet) map[string]any {
	return map[string]any{
		"name":    rs.Name,
		"mode":    string(rs.Mode),
		"rule":    rs.Rule.String(),
		"enabled": rs.Enabled,
	}
}
