// Package operator routes operator chat messages to rule-set management:
// root commands for privileged operators and edit commands for operators
// holding an edit session.
package operator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/interceptor/internal/audit"
	"github.com/TimurManjosov/interceptor/internal/edit"
	"github.com/TimurManjosov/interceptor/internal/session"
	"github.com/TimurManjosov/interceptor/internal/store"
	"github.com/TimurManjosov/interceptor/internal/telemetry"
	"github.com/TimurManjosov/interceptor/internal/ttlcache"
	"github.com/TimurManjosov/interceptor/internal/validation"
)

// Root command names.
const (
	CmdList   = "list"
	CmdNew    = "new"
	CmdDelete = "delete"
	CmdSelect = "select"
	CmdHelp   = "help"
)

var rootHelp = []string{
	"list rule sets: list",
	"create a rule set: new {name}",
	"delete a rule set: delete {id}",
	"select a rule set for editing: select {id}",
	"show this help: help",
}

// Outcome labels for command metrics.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeMissing  = "missing"
	outcomeError    = "error"
)

// Message is one chat message addressed to the console.
type Message struct {
	Platform       string `json:"platform"`
	UserID         string `json:"userId"`
	ChannelPrivate bool   `json:"channelPrivate"`
	Content        string `json:"content"`
}

// Identity returns the sender.
func (m Message) Identity() session.Identity {
	return session.Identity{Platform: m.Platform, ID: m.UserID}
}

// Reply is the console's answer. Handled is false when the message is not
// meant for the console and should continue as an ordinary event.
type Reply struct {
	Handled bool   `json:"handled"`
	Text    string `json:"reply,omitempty"`
}

func handled(lines ...string) Reply {
	return Reply{Handled: true, Text: strings.Join(lines, "\n")}
}

// Sessions is the edit-session registry used by the console.
type Sessions = session.Registry[*store.RuleSet]

// Console handles operator messages.
type Console struct {
	store    store.Store
	admins   *session.AdminSet
	sessions *Sessions
	audit    *audit.Service
	logger   zerolog.Logger
}

// NewConsole creates a Console. auditSvc may be nil.
func NewConsole(s store.Store, admins *session.AdminSet, sessions *Sessions, auditSvc *audit.Service, logger zerolog.Logger) *Console {
	return &Console{
		store:    s,
		admins:   admins,
		sessions: sessions,
		audit:    auditSvc,
		logger:   logger.With().Str("component", "console").Logger(),
	}
}

// Handle processes one message. Only private messages from privileged
// senders reach the console. While the sender holds a live edit session every
// such message is an edit command; otherwise the root commands apply. Store
// failures are returned as errors.
func (c *Console) Handle(ctx context.Context, msg Message) (Reply, error) {
	id := msg.Identity()
	if !msg.ChannelPrivate || !id.Valid() || !c.admins.Contains(id) {
		return Reply{}, nil
	}

	if cache, ok := c.sessions.Lookup(id); ok {
		return c.handleEdit(ctx, id, cache, msg.Content)
	}
	return c.handleRoot(ctx, id, msg.Content)
}

func (c *Console) handleEdit(ctx context.Context, id session.Identity, cache *ttlcache.Cache[*store.RuleSet], text string) (Reply, error) {
	var (
		reply   Reply
		command = string(edit.CmdHelp)
	)

	err := cache.With(ctx, func(rs *store.RuleSet, ok bool) error {
		if !ok || rs == nil {
			cache.MarkExpired()
			telemetry.RecordEditCommand("edit", outcomeMissing)
			reply = handled(edit.ErrRecordMissing.Error())
			return nil
		}

		header := "editing rule set " + edit.Format(*rs, false)

		line, err := edit.ParseLine(text)
		command = string(line.Command)
		if err != nil {
			telemetry.RecordEditCommand(command, outcomeRejected)
			reply = handled(header, err.Error())
			return nil
		}

		res, err := edit.Execute(cache, rs, line.Command, line.Args)
		if err != nil {
			telemetry.RecordEditCommand(command, outcomeRejected)
			reply = handled(header, err.Error())
			return nil
		}

		if res.Patch != nil && !res.Patch.IsEmpty() {
			err := c.store.Update(ctx, store.ByID(rs.ID), *res.Patch)
			if errors.Is(err, store.ErrNotFound) {
				cache.MarkExpired()
				telemetry.RecordEditCommand(command, outcomeMissing)
				reply = handled(header, edit.ErrRecordMissing.Error())
				return nil
			}
			if err != nil {
				// the cached record is now ahead of the store; end the session
				cache.MarkExpired()
				return fmt.Errorf("persist rule set %d: %w", rs.ID, err)
			}
			cache.Update()
			c.logAudit(audit.NewOperatorEvent(id.String()).
				ForResource(audit.ResourceTypeRuleSet, strconv.FormatInt(rs.ID, 10)).
				WithAction(audit.ActionUpdated).
				WithChanges(res.Patch.Fields()))
			c.logger.Info().
				Str("operator", id.String()).
				Int64("rule_set", rs.ID).
				Str("command", command).
				Msg("rule set updated")
		}

		telemetry.RecordEditCommand(command, outcomeOK)
		reply = handled(append([]string{header}, res.Messages...)...)
		return nil
	})
	if err != nil {
		telemetry.RecordEditCommand(command, outcomeError)
		c.logger.Error().Err(err).Str("operator", id.String()).Str("command", command).Msg("edit command failed")
		return Reply{}, err
	}
	return reply, nil
}

func (c *Console) handleRoot(ctx context.Context, id session.Identity, text string) (Reply, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	rest = strings.TrimSpace(rest)

	var (
		reply Reply
		err   error
	)
	switch word {
	case CmdList:
		reply, err = c.list(ctx)
	case CmdNew:
		reply, err = c.create(ctx, id, rest)
	case CmdDelete:
		reply, err = c.remove(ctx, id, rest)
	case CmdSelect:
		reply, err = c.selectRuleSet(ctx, id, rest)
	case CmdHelp:
		reply = handled(rootHelp...)
	default:
		return Reply{}, nil
	}

	if err != nil {
		telemetry.RecordEditCommand(word, outcomeError)
		c.logger.Error().Err(err).Str("operator", id.String()).Str("command", word).Msg("console command failed")
		return Reply{}, err
	}
	telemetry.RecordEditCommand(word, outcomeOK)
	return reply, nil
}

func (c *Console) list(ctx context.Context) (Reply, error) {
	sets, err := c.store.Query(ctx, store.Filter{})
	if err != nil {
		return Reply{}, err
	}
	lines := []string{"rule sets:"}
	if len(sets) == 0 {
		lines = append(lines, "none")
	}
	for _, rs := range sets {
		lines = append(lines, edit.Format(rs, true))
	}
	return handled(lines...), nil
}

func (c *Console) create(ctx context.Context, id session.Identity, name string) (Reply, error) {
	if r := validation.ValidateName(name); !r.Valid {
		return handled(r.First("name")), nil
	}
	rs, err := c.store.Create(ctx, store.DefaultCreateParams(name))
	if err != nil {
		return Reply{}, err
	}
	c.logAudit(audit.NewOperatorEvent(id.String()).
		ForResource(audit.ResourceTypeRuleSet, strconv.FormatInt(rs.ID, 10)).
		WithAction(audit.ActionCreated).
		WithAfterState(stateOf(rs)))
	c.logger.Info().Str("operator", id.String()).Int64("rule_set", rs.ID).Msg("rule set created")
	return handled("created rule set " + edit.Format(rs, false)), nil
}

func (c *Console) remove(ctx context.Context, id session.Identity, raw string) (Reply, error) {
	rsID, r := validation.ParseID(raw)
	if !r.Valid {
		return handled(r.First("id")), nil
	}
	rs, err := store.Get(ctx, c.store, rsID)
	if errors.Is(err, store.ErrNotFound) {
		return handled(fmt.Sprintf("rule set %d does not exist", rsID)), nil
	}
	if err != nil {
		return Reply{}, err
	}
	if err := c.store.Delete(ctx, store.ByID(rsID)); err != nil {
		return Reply{}, err
	}
	c.ReleaseRuleSet(rsID)
	c.logAudit(audit.NewOperatorEvent(id.String()).
		ForResource(audit.ResourceTypeRuleSet, strconv.FormatInt(rs.ID, 10)).
		WithAction(audit.ActionDeleted).
		WithBeforeState(stateOf(rs)))
	c.logger.Info().Str("operator", id.String()).Int64("rule_set", rs.ID).Msg("rule set deleted")
	return handled(fmt.Sprintf("deleted rule set [%d] [%s]", rs.ID, rs.Name)), nil
}

func (c *Console) selectRuleSet(ctx context.Context, id session.Identity, raw string) (Reply, error) {
	rsID, r := validation.ParseID(raw)
	if !r.Valid {
		return handled(r.First("id")), nil
	}
	rs, err := store.Get(ctx, c.store, rsID)
	if errors.Is(err, store.ErrNotFound) {
		return handled(fmt.Sprintf("rule set %d does not exist", rsID)), nil
	}
	if err != nil {
		return Reply{}, err
	}

	if _, err := c.sessions.Start(id, &rs, c.refresher(rsID)); err != nil {
		if errors.Is(err, session.ErrAlreadyActive) {
			return handled("already in edit mode"), nil
		}
		return handled("cannot verify identity"), nil
	}

	c.logAudit(audit.NewOperatorEvent(id.String()).
		ForResource(audit.ResourceTypeSession, strconv.FormatInt(rsID, 10)).
		WithAction(audit.ActionSelected))
	ttl := int64(c.sessions.TTL().Seconds())
	return handled(fmt.Sprintf("selected rule set %d and entered edit mode; send exit to leave or wait %d seconds", rsID, ttl)), nil
}

// ReleaseRuleSet ends every edit session holding rule set id. Call it after
// the rule set is deleted.
func (c *Console) ReleaseRuleSet(id int64) int {
	n := c.sessions.ExpireWhere(func(rs *store.RuleSet) bool {
		return rs != nil && rs.ID == id
	})
	if n > 0 {
		c.logger.Info().Int64("rule_set", id).Int("sessions", n).Msg("edit sessions ended by delete")
	}
	return n
}

// refresher reloads rule set id; a deleted record yields absent.
func (c *Console) refresher(id int64) ttlcache.RefreshFunc[*store.RuleSet] {
	return func(ctx context.Context) (*store.RuleSet, bool, error) {
		rs, err := store.Get(ctx, c.store, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return &rs, true, nil
	}
}

func (c *Console) logAudit(b *audit.EventBuilder) {
	if c.audit == nil {
		return
	}
	c.audit.Log(b.Build())
}

func stateOf(rs store.RuleSet) map[string]any {
	return map[string]any{
		"name":    rs.Name,
		"mode":    string(rs.Mode),
		"rule":    rs.Rule.String(),
		"enabled": rs.Enabled,
	}
}
