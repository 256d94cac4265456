package planstore

import (
	"context"
	"errors"

	"github.com/antoniostano/fitcoach/internal/plan"
)

// ErrNotFound is returned when no plan matches a lookup.
var ErrNotFound = errors.New("plan not found")

// Store persists generated plans. The most recent record per user is what the
// dashboard renders until the user regenerates.
type Store interface {
	Save(ctx context.Context, rec plan.Record) error
	Get(ctx context.Context, id string) (plan.Record, error)
	Latest(ctx context.Context, userID string) (plan.Record, error)
	Close() error
}
