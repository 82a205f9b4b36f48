package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TimurManjosov/interceptor/internal/rules"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ` + ruleSetTable + ` (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT        NOT NULL,
	mode       TEXT        NOT NULL,
	rule       JSONB       NOT NULL DEFAULT '[]',
	enabled    BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the rule-set table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate rule sets: %w", err)
	}
	return nil
}

func pgBool(b bool) any { return b }

// Query retrieves matching rule sets ordered by id.
func (p *PostgresStore) Query(ctx context.Context, filter Filter) ([]RuleSet, error) {
	args := &sqlArgs{ph: dollarPlaceholder}
	sql := "SELECT " + ruleSetColumns + " FROM " + ruleSetTable +
		whereClause(filter, args, pgBool) + " ORDER BY id ASC"

	rows, err := p.pool.Query(ctx, sql, args.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make([]RuleSet, 0)
	for rows.Next() {
		rs, err := scanPostgresRow(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	return sets, rows.Err()
}

// Create inserts a rule set and returns it with the assigned id.
func (p *PostgresStore) Create(ctx context.Context, params CreateParams) (RuleSet, error) {
	params = params.normalize()
	raw, err := marshalRule(params.Rule)
	if err != nil {
		return RuleSet{}, err
	}
	now := p.now()

	row := p.pool.QueryRow(ctx,
		"INSERT INTO "+ruleSetTable+" (name, mode, rule, enabled, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING "+ruleSetColumns,
		params.Name, string(params.Mode), raw, params.Enabled, now)
	return scanPostgresRow(row)
}

// Update applies the patch to every matching rule set.
func (p *PostgresStore) Update(ctx context.Context, filter Filter, patch Patch) error {
	args := &sqlArgs{ph: dollarPlaceholder}
	set, err := setClause(patch, p.now(), args, pgBool)
	if err != nil {
		return err
	}
	sql := "UPDATE " + ruleSetTable + " SET " + set + whereClause(filter, args, pgBool)
	tag, err := p.pool.Exec(ctx, sql, args.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes every matching rule set.
func (p *PostgresStore) Delete(ctx context.Context, filter Filter) error {
	args := &sqlArgs{ph: dollarPlaceholder}
	_, err := p.pool.Exec(ctx, "DELETE FROM "+ruleSetTable+whereClause(filter, args, pgBool), args.args...)
	return err
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanPostgresRow(row pgx.Row) (RuleSet, error) {
	var (
		rs   RuleSet
		mode string
		raw  []byte
	)
	if err := row.Scan(&rs.ID, &rs.Name, &mode, &raw, &rs.Enabled, &rs.CreatedAt, &rs.UpdatedAt); err != nil {
		return RuleSet{}, err
	}
	rule, err := unmarshalRule(raw)
	if err != nil {
		return RuleSet{}, err
	}
	rs.Mode = rules.Mode(mode)
	rs.Rule = rule
	rs.CreatedAt = rs.CreatedAt.UTC()
	rs.UpdatedAt = rs.UpdatedAt.UTC()
	return rs, nil
}
