package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogSink writes audit events as structured log lines.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink that writes to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("log", "audit").Logger()}
}

// Write logs one event.
func (s *LogSink) Write(ctx context.Context, event AuditEvent) error {
	e := s.logger.Info().
		Str("event_id", event.ID).
		Time("occurred_at", event.OccurredAt).
		Str("actor", event.Actor.Display).
		Str("action", event.Action).
		Str("resource_type", event.ResourceType).
		Str("resource_id", event.ResourceID).
		Str("status", event.Status)
	if event.RequestID != "" {
		e = e.Str("request_id", event.RequestID)
	}
	if event.Source.IPAddress != "" {
		e = e.Str("ip", event.Source.IPAddress)
	}
	if event.Changes != nil {
		e = e.Interface("changes", event.Changes)
	}
	if event.ErrorMessage != nil {
		e = e.Str("error", *event.ErrorMessage)
	}
	e.Msg("audit")
	return nil
}

// MemorySink keeps events in memory. Useful for tests and local runs.
type MemorySink struct {
	mu     sync.Mutex
	events []AuditEvent
}

// Write appends the event.
func (s *MemorySink) Write(ctx context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

// MultiSink writes every event to each sink in order. All sinks are tried;
// the first error is returned.
type MultiSink []AuditSink

// Write fans the event out.
func (m MultiSink) Write(ctx context.Context, event AuditEvent) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
