package planstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/antoniostano/fitcoach/internal/plan"
)

// SQLiteStore persists plans in a single SQLite file. Timestamps are stored
// as unix nanoseconds so ordering is exact.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS fitness_plans (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    profile TEXT NOT NULL,
    plan TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fitness_plans_user_created ON fitness_plans(user_id, created_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec plan.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	body, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fitness_plans (id, user_id, profile, plan, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET profile = excluded.profile, plan = excluded.plan`,
		rec.ID, rec.UserID, string(profile), string(body), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (plan.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, profile, plan, created_at FROM fitness_plans WHERE id = ?`, id)
	return scanSQLite(row)
}

func (s *SQLiteStore) Latest(ctx context.Context, userID string) (plan.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, profile, plan, created_at FROM fitness_plans
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, userID)
	return scanSQLite(row)
}

func scanSQLite(row *sql.Row) (plan.Record, error) {
	var (
		rec           plan.Record
		profile, body string
		createdAt     int64
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &profile, &body, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return plan.Record{}, ErrNotFound
		}
		return plan.Record{}, fmt.Errorf("scan plan row: %w", err)
	}
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := decodeRecord(&rec, []byte(profile), []byte(body)); err != nil {
		return plan.Record{}, err
	}
	return rec, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
