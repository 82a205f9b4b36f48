package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/interceptor/internal/audit"
)

// Header names set on every delivery
const (
	HeaderSignature = "X-Interceptor-Signature"
	HeaderEvent     = "X-Interceptor-Event"
	HeaderDelivery  = "X-Interceptor-Delivery"
)

// Options tune delivery. Zero values take the defaults.
type Options struct {
	MaxRetries int           // default 3
	Timeout    time.Duration // per attempt, default 10s
	RetryWait  time.Duration // first backoff, doubled per attempt, default 1s
}

// Dispatcher delivers rule-set change notifications to one endpoint. It is
// an audit.AuditSink, so deliveries run on the audit worker and never block
// the request that caused them.
type Dispatcher struct {
	url    string
	secret string
	client *resty.Client
	logger zerolog.Logger
}

var _ audit.AuditSink = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher for url. Payloads are signed with secret.
func NewDispatcher(url, secret string, opts Options, logger zerolog.Logger) *Dispatcher {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = time.Second
	}

	c := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryWait << opts.MaxRetries).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
		})

	return &Dispatcher{
		url:    url,
		secret: secret,
		client: c,
		logger: logger.With().Str("component", "webhook").Logger(),
	}
}

// Write delivers ev if it maps to a webhook event type; other events are
// ignored.
func (d *Dispatcher) Write(ctx context.Context, ev audit.AuditEvent) error {
	event, ok := FromAudit(ev)
	if !ok {
		return nil
	}
	return d.Deliver(ctx, event)
}

// Deliver POSTs one event, retrying on transport errors, 429 and 5xx.
func (d *Dispatcher) Deliver(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	deliveryID := uuid.NewString()
	start := time.Now()
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader(HeaderSignature, ComputeHMAC(payload, d.secret)).
		SetHeader(HeaderEvent, event.Type).
		SetHeader(HeaderDelivery, deliveryID).
		SetBody(payload).
		Post(d.url)

	if err != nil {
		d.logger.Warn().Err(err).Str("delivery", deliveryID).Str("event", event.Type).Msg("delivery failed")
		return fmt.Errorf("webhook delivery: %w", err)
	}

	attempts := resp.Request.Attempt
	if !resp.IsSuccess() {
		d.logger.Warn().
			Str("delivery", deliveryID).
			Str("event", event.Type).
			Int("status", resp.StatusCode()).
			Int("attempts", attempts).
			Msg("delivery failed permanently")
		return fmt.Errorf("webhook delivery: status %d after %d attempt(s)", resp.StatusCode(), attempts)
	}

	d.logger.Debug().
		Str("delivery", deliveryID).
		Str("event", event.Type).
		Int("status", resp.StatusCode()).
		Int("attempts", attempts).
		Dur("duration", time.Since(start)).
		Msg("delivered")
	return nil
}
