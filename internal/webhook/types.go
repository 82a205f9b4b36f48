package webhook

import (
	"time"

	"github.com/TimurManjosov/interceptor/internal/audit"
)

// Event types that can trigger webhooks
const (
	EventRuleSetCreated  = "ruleset.created"
	EventRuleSetUpdated  = "ruleset.updated"
	EventRuleSetDeleted  = "ruleset.deleted"
	EventSessionSelected = "session.selected"
)

// Event is the JSON body POSTed to the webhook endpoint
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Resource  Resource  `json:"resource"`
	Data      EventData `json:"data"`
	Metadata  Metadata  `json:"metadata"`
}

// Resource identifies the resource that triggered the event
type Resource struct {
	Type string `json:"type"` // rule_set or edit_session
	ID   string `json:"id"`   // rule-set id
}

// EventData contains the before/after state and changes
type EventData struct {
	Before  map[string]any `json:"before,omitempty"`
	After   map[string]any `json:"after,omitempty"`
	Changes map[string]any `json:"changes,omitempty"`
}

// Metadata contains additional context about the event
type Metadata struct {
	Actor     string `json:"actor,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

var eventTypes = map[[2]string]string{
	{audit.ResourceTypeRuleSet, audit.ActionCreated}:  EventRuleSetCreated,
	{audit.ResourceTypeRuleSet, audit.ActionUpdated}:  EventRuleSetUpdated,
	{audit.ResourceTypeRuleSet, audit.ActionDeleted}:  EventRuleSetDeleted,
	{audit.ResourceTypeSession, audit.ActionSelected}: EventSessionSelected,
}

// FromAudit converts a successful audit event into a webhook event. Failed
// actions and actions without a webhook type report false.
func FromAudit(ev audit.AuditEvent) (Event, bool) {
	if ev.Status != audit.StatusSuccess {
		return Event{}, false
	}
	typ, ok := eventTypes[[2]string{ev.ResourceType, ev.Action}]
	if !ok {
		return Event{}, false
	}
	return Event{
		ID:        ev.ID,
		Type:      typ,
		Timestamp: ev.OccurredAt,
		Resource:  Resource{Type: ev.ResourceType, ID: ev.ResourceID},
		Data: EventData{
			Before:  ev.BeforeState,
			After:   ev.AfterState,
			Changes: ev.Changes,
		},
		Metadata: Metadata{
			Actor:     ev.Actor.Display,
			IPAddress: ev.Source.IPAddress,
			RequestID: ev.RequestID,
		},
	}, true
}
