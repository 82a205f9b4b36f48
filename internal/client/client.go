// Package client is an HTTP client for the interceptor API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/TimurManjosov/interceptor/internal/engine"
	"github.com/TimurManjosov/interceptor/internal/operator"
	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/store"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("API error (status %d, %s): %s %v", e.StatusCode, e.Code, msg, e.Fields)
	}
	return fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Code, msg)
}

// Is makes errors.Is(err, ErrNotFound) hold for 404 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client is an HTTP client for the interceptor API
type Client struct {
	http *resty.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)
	return &Client{http: c}
}

// CreateRequest is the body of a rule-set creation. Zero fields take the
// server defaults.
type CreateRequest struct {
	Name    string     `json:"name"`
	Mode    rules.Mode `json:"mode,omitempty"`
	Rule    rules.Rule `json:"rule,omitempty"`
	Enabled *bool      `json:"enabled,omitempty"`
}

// SessionsInfo is the edit-session overview.
type SessionsInfo struct {
	Active     int      `json:"active"`
	TTLSeconds int      `json:"ttlSeconds"`
	Admins     []string `json:"admins"`
}

// ListRuleSets retrieves all rule sets in id order
func (c *Client) ListRuleSets(ctx context.Context) ([]store.RuleSet, error) {
	var result struct {
		RuleSets []store.RuleSet `json:"ruleSets"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/rulesets", nil, &result); err != nil {
		return nil, err
	}
	return result.RuleSets, nil
}

// GetRuleSet retrieves a single rule set by id
func (c *Client) GetRuleSet(ctx context.Context, id int64) (*store.RuleSet, error) {
	var rs store.RuleSet
	if err := c.do(ctx, http.MethodGet, "/v1/rulesets/"+strconv.FormatInt(id, 10), nil, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// CreateRuleSet creates a rule set and returns the stored record
func (c *Client) CreateRuleSet(ctx context.Context, req CreateRequest) (*store.RuleSet, error) {
	var rs store.RuleSet
	if err := c.do(ctx, http.MethodPost, "/v1/rulesets", req, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// DeleteRuleSet deletes a rule set
func (c *Client) DeleteRuleSet(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/v1/rulesets/"+strconv.FormatInt(id, 10), nil, nil)
}

// Decide asks the server whether ev may pass
func (c *Client) Decide(ctx context.Context, ev engine.Event) (engine.Result, error) {
	var res engine.Result
	err := c.do(ctx, http.MethodPost, "/v1/events", ev, &res)
	return res, err
}

// SendMessage delivers an operator chat message to the console
func (c *Client) SendMessage(ctx context.Context, msg operator.Message) (operator.Reply, error) {
	var reply operator.Reply
	err := c.do(ctx, http.MethodPost, "/v1/operator/messages", msg, &reply)
	return reply, err
}

// Sessions retrieves the edit-session overview
func (c *Client) Sessions(ctx context.Context) (SessionsInfo, error) {
	var info SessionsInfo
	err := c.do(ctx, http.MethodGet, "/v1/sessions", nil, &info)
	return info, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() || resp.StatusCode() >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		_ = json.Unmarshal(resp.Body(), apiErr)
		if apiErr.Message == "" && len(resp.Body()) > 0 && apiErr.Code == "" {
			apiErr.Message = resp.String()
		}
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
