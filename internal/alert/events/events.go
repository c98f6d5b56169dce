// Package events defines the lifecycle event stream emitted after successful
// mutations. Publishing is fail-open: a sink failure is logged by the caller
// and never rolls back the mutation.
package events

import (
	"context"
	"time"

	"alertcast/internal/alert/models"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeAlertCreated          Type = "alert_created"
	TypeDistributionCompleted Type = "distribution_completed"
	TypeImpactScored          Type = "impact_scored"
	TypeAlertDeactivated      Type = "alert_deactivated"
	TypeAdminTransferred      Type = "admin_transferred"
)

// Event is emitted from the service after a successful mutation. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	AlertID    int64           `json:"alert_id,omitempty"`
	Category   models.Category `json:"category,omitempty"`
	Severity   models.Severity `json:"severity,omitempty"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher delivers lifecycle events to an external stream.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
