package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/TimurManjosov/interceptor/internal/rules"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ` + ruleSetTable + ` (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	mode       TEXT    NOT NULL,
	rule       TEXT    NOT NULL DEFAULT '[]',
	enabled    INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteStore implements Store on a single SQLite file. It is suitable for
// single-instance deployments that need rule sets to survive restarts.
type SQLiteStore struct {
	db        *sql.DB
	now       func() time.Time
	closeOnce sync.Once
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func sqliteBool(b bool) any {
	if b {
		return 1
	}
	return 0
}

// Query retrieves matching rule sets ordered by id.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]RuleSet, error) {
	args := &sqlArgs{ph: questionPlaceholder}
	query := "SELECT " + ruleSetColumns + " FROM " + ruleSetTable +
		whereClause(filter, args, sqliteBool) + " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make([]RuleSet, 0)
	for rows.Next() {
		rs, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	return sets, rows.Err()
}

// Create inserts a rule set and returns it with the assigned id.
func (s *SQLiteStore) Create(ctx context.Context, params CreateParams) (RuleSet, error) {
	params = params.normalize()
	raw, err := marshalRule(params.Rule)
	if err != nil {
		return RuleSet{}, err
	}
	now := s.now()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO "+ruleSetTable+" (name, mode, rule, enabled, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		params.Name, string(params.Mode), raw, sqliteBool(params.Enabled), now.UnixNano(), now.UnixNano())
	if err != nil {
		return RuleSet{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RuleSet{}, err
	}

	return RuleSet{
		ID:        id,
		Name:      params.Name,
		Mode:      params.Mode,
		Rule:      params.Rule,
		Enabled:   params.Enabled,
		CreatedAt: time.Unix(0, now.UnixNano()).UTC(),
		UpdatedAt: time.Unix(0, now.UnixNano()).UTC(),
	}, nil
}

// Update applies the patch to every matching rule set.
func (s *SQLiteStore) Update(ctx context.Context, filter Filter, patch Patch) error {
	args := &sqlArgs{ph: questionPlaceholder}
	set, err := setClause(patch, s.now().UnixNano(), args, sqliteBool)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE "+ruleSetTable+" SET "+set+whereClause(filter, args, sqliteBool), args.args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes every matching rule set.
func (s *SQLiteStore) Delete(ctx context.Context, filter Filter) error {
	args := &sqlArgs{ph: questionPlaceholder}
	_, err := s.db.ExecContext(ctx, "DELETE FROM "+ruleSetTable+whereClause(filter, args, sqliteBool), args.args...)
	return err
}

// Close closes the underlying database. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.db.Close() })
	return err
}

func scanSQLiteRow(rows *sql.Rows) (RuleSet, error) {
	var (
		rs                 RuleSet
		mode, raw          string
		enabled            int64
		createdAt, updated int64
	)
	if err := rows.Scan(&rs.ID, &rs.Name, &mode, &raw, &enabled, &createdAt, &updated); err != nil {
		return RuleSet{}, err
	}
	rule, err := unmarshalRule([]byte(raw))
	if err != nil {
		return RuleSet{}, err
	}
	rs.Mode = rules.Mode(mode)
	rs.Rule = rule
	rs.Enabled = enabled != 0
	rs.CreatedAt = time.Unix(0, createdAt).UTC()
	rs.UpdatedAt = time.Unix(0, updated).UTC()
	return rs, nil
}
