// Package store holds the persistence contracts and implementations for the
// alert engine. Implementations return sentinel errors
// (pkg/platform/sentinel); the service layer translates them into coded
// domain errors.
package store

import (
	"context"

	"alertcast/internal/alert/models"
	"alertcast/pkg/platform/sentinel"
)

// Store-level error aliases keep call sites short.
var (
	ErrNotFound      = sentinel.ErrNotFound
	ErrAlreadyExists = sentinel.ErrAlreadyExists
	ErrInvalidState  = sentinel.ErrInvalidState
)

// AlertStore owns alert records: identity allocation, lifecycle flags,
// distribution state and impact scoring. Counters live in InteractionStore.
type AlertStore interface {
	// Create persists the alert and returns its newly allocated id.
	// Ids start at 1, increase strictly, and are never reused.
	Create(ctx context.Context, alert *models.Alert) (int64, error)
	Get(ctx context.Context, id int64) (*models.Alert, error)
	List(ctx context.Context) ([]*models.Alert, error)
	ListByCategory(ctx context.Context, category models.Category) ([]*models.Alert, error)
	Count(ctx context.Context) (int, error)
	// CompleteDistribution is a one-time transition. A second call returns
	// ErrInvalidState; the first call's totalEligible sticks.
	CompleteDistribution(ctx context.Context, id int64, totalEligible uint64) error
	// SetImpactScore overwrites any previous score.
	SetImpactScore(ctx context.Context, id int64, score int) error
	Deactivate(ctx context.Context, id int64) error
}

// InteractionStore tracks per-alert view tallies and per-(alert, user)
// acknowledgments. Views are a plain tally; acknowledgments are create-only
// and unique per user.
type InteractionStore interface {
	RecordView(ctx context.Context, alertID int64) error
	// Acknowledge returns ErrAlreadyExists when (alertID, user) was already
	// recorded. Under concurrent duplicate calls exactly one succeeds.
	Acknowledge(ctx context.Context, alertID int64, user string) error
	HasAcknowledged(ctx context.Context, alertID int64, user string) (bool, error)
	Counts(ctx context.Context, alertID int64) (views uint64, acks uint64, err error)
}

// PreferenceStore keeps at most one preference record per user.
// Set fully replaces the record (last write wins, no merge).
type PreferenceStore interface {
	Set(ctx context.Context, pref *models.UserPreference) error
	Get(ctx context.Context, user string) (*models.UserPreference, error)
}

// TierStore records admin-assigned subscription tiers. Users without a row
// default to basic; that default belongs to the service, so Get returns
// ErrNotFound for unknown users.
type TierStore interface {
	Set(ctx context.Context, user string, tier models.Tier) error
	Get(ctx context.Context, user string) (models.Tier, error)
}

// AdminStore holds the single admin principal. Transfer is compare-and-swap:
// it only succeeds when current matches the stored value, so two racing
// transfers cannot both win.
type AdminStore interface {
	Get(ctx context.Context) (string, error)
	Transfer(ctx context.Context, current, next string) error
}
