// Package testutil holds fixtures shared by handler and engine tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/store"
)

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	APIKey  string // sent as a bearer token when set
	Body    any    // strings are sent verbatim, anything else as JSON
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := r.Body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(r.Method, r.Path, &buf)
	if buf.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Cond builds a single condition.
func Cond(typ rules.ConditionType, compare rules.Compare, target string) rules.Condition {
	return rules.Condition{Type: typ, Compare: compare, Target: target}
}

// Blacklist returns enabled blacklist params named name.
func Blacklist(name string, conds ...rules.Condition) store.CreateParams {
	return store.CreateParams{Name: name, Mode: rules.ModeBlacklist, Enabled: true, Rule: rules.Rule(conds)}
}

// Whitelist returns enabled whitelist params named name.
func Whitelist(name string, conds ...rules.Condition) store.CreateParams {
	return store.CreateParams{Name: name, Mode: rules.ModeWhitelist, Enabled: true, Rule: rules.Rule(conds)}
}

// SeedRuleSets creates each rule set in order and fails the test on error.
func SeedRuleSets(t *testing.T, st store.Store, params ...store.CreateParams) []store.RuleSet {
	t.Helper()
	out := make([]store.RuleSet, 0, len(params))
	for _, p := range params {
		rs, err := st.Create(context.Background(), p)
		if err != nil {
			t.Fatalf("seed rule set %q: %v", p.Name, err)
		}
		out = append(out, rs)
	}
	return out
}
