package engine

import (
	"errors"
	"fmt"

	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/session"
)

// ErrInvariant is returned when a condition that should have been rejected at
// the boundary reaches evaluation with an unknown type or compare.
var ErrInvariant = errors.New("rule invariant violated")

// Reason represents the decision reason.
type Reason string

const (
	ReasonPrivileged     Reason = "PRIVILEGED"
	ReasonBlacklistMatch Reason = "BLACKLIST_MATCH"
	ReasonWhitelistMatch Reason = "WHITELIST_MATCH"
	ReasonDefaultDeny    Reason = "DEFAULT_DENY"
	ReasonError          Reason = "ERROR"
)

// Attributes is the read-only view of an event that conditions inspect.
// Absent values are empty strings.
type Attributes struct {
	Platform string `json:"platform"`
	Guild    string `json:"guild,omitempty"`
	User     string `json:"user"`
	Message  string `json:"message"`
}

// Value returns the attribute selected by t.
func (a Attributes) Value(t rules.ConditionType) (string, error) {
	switch t {
	case rules.TypePlatform:
		return a.Platform, nil
	case rules.TypeGuild:
		return a.Guild, nil
	case rules.TypeUser:
		return a.User, nil
	case rules.TypeMessage:
		return a.Message, nil
	default:
		return "", fmt.Errorf("%w: condition type %q", ErrInvariant, t)
	}
}

// Event is one inbound chat event as seen by the interceptor.
type Event struct {
	Platform       string `json:"platform"`
	GuildID        string `json:"guildId,omitempty"`
	UserID         string `json:"userId"`
	Content        string `json:"content"`
	ChannelPrivate bool   `json:"channelPrivate"`
}

// Attributes projects the event onto the fields conditions can select.
func (e Event) Attributes() Attributes {
	return Attributes{
		Platform: e.Platform,
		Guild:    e.GuildID,
		User:     e.UserID,
		Message:  e.Content,
	}
}

// Operator returns the identity of the event's sender.
func (e Event) Operator() session.Identity {
	return session.Identity{Platform: e.Platform, ID: e.UserID}
}

// Result is the deterministic output of Decide.
type Result struct {
	Allowed   bool   `json:"allowed"`
	Reason    Reason `json:"reason"`
	RuleSetID int64  `json:"ruleSetId,omitempty"`
}
