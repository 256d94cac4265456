package planstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antoniostano/fitcoach/internal/plan"
)

// PostgresStore persists plans in PostgreSQL with profile and plan as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fitness_plans (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			profile JSONB NOT NULL,
			plan JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fitness_plans_user_created ON fitness_plans (user_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec plan.Record) error {
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

	_, err = s.pool.Exec(ctx,
		`INSERT INTO fitness_plans (id, user_id, profile, plan, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET profile = EXCLUDED.profile, plan = EXCLUDED.plan`,
		rec.ID,
		rec.UserID,
		profile,
		body,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (plan.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, profile, plan, created_at FROM fitness_plans WHERE id=$1`, id)
	return scanPostgres(row)
}

func (s *PostgresStore) Latest(ctx context.Context, userID string) (plan.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, profile, plan, created_at FROM fitness_plans
		 WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1`, userID)
	return scanPostgres(row)
}

func scanPostgres(row pgx.Row) (plan.Record, error) {
	var (
		rec           plan.Record
		profile, body []byte
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &profile, &body, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return plan.Record{}, ErrNotFound
		}
		return plan.Record{}, fmt.Errorf("scan plan row: %w", err)
	}
	if err := decodeRecord(&rec, profile, body); err != nil {
		return plan.Record{}, err
	}
	return rec, nil
}

func decodeRecord(rec *plan.Record, profile, body []byte) error {
	if err := json.Unmarshal(profile, &rec.Profile); err != nil {
		return fmt.Errorf("decode stored profile: %w", err)
	}
	if err := json.Unmarshal(body, &rec.Plan); err != nil {
		return fmt.Errorf("decode stored plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Healthy(ctx context.Context) bool {
	return s.pool.Ping(ctx) == nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
