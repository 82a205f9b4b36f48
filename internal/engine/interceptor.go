package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/interceptor/internal/session"
	"github.com/TimurManjosov/interceptor/internal/store"
	"github.com/TimurManjosov/interceptor/internal/telemetry"
)

// Interceptor gates events against the rule sets held in a store. Rule sets
// are read on every event, so edits take effect on the next decision.
type Interceptor struct {
	store  store.Store
	admins *session.AdminSet
	logger zerolog.Logger
}

// NewInterceptor creates an Interceptor.
func NewInterceptor(s store.Store, admins *session.AdminSet, logger zerolog.Logger) *Interceptor {
	return &Interceptor{
		store:  s,
		admins: admins,
		logger: logger.With().Str("component", "interceptor").Logger(),
	}
}

// Privileged reports whether ev comes from an administrator on an
// exclusively private channel.
func (i *Interceptor) Privileged(ev Event) bool {
	return ev.ChannelPrivate && i.admins.Contains(ev.Operator())
}

// Intercept decides whether ev may pass. On error the event must be treated
// as denied.
func (i *Interceptor) Intercept(ctx context.Context, ev Event) (Result, error) {
	privileged := i.Privileged(ev)

	var sets []store.RuleSet
	if !privileged {
		var err error
		sets, err = i.store.Query(ctx, store.Filter{})
		if err != nil {
			i.logger.Error().Err(err).Msg("failed to load rule sets")
			telemetry.RecordDecision(false, string(ReasonError))
			return Result{Reason: ReasonError}, fmt.Errorf("load rule sets: %w", err)
		}
	}

	res, err := Decide(sets, ev.Attributes(), privileged)
	telemetry.RecordDecision(res.Allowed, string(res.Reason))
	if err != nil {
		i.logger.Error().Err(err).Int64("rule_set", res.RuleSetID).Msg("rule evaluation failed")
		return res, err
	}

	i.logger.Debug().
		Str("platform", ev.Platform).
		Str("user", ev.UserID).
		Bool("allowed", res.Allowed).
		Str("reason", string(res.Reason)).
		Int64("rule_set", res.RuleSetID).
		Msg("event decided")
	return res, nil
}
