// Package service implements the alert lifecycle and access-control engine.
// Every mutating operation runs its authorization and validation gates before
// touching any store, so a failed call never leaves partial writes behind.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alertcast/internal/alert/events"
	"alertcast/internal/alert/metrics"
	"alertcast/internal/alert/models"
	"alertcast/internal/alert/store"
	dErrors "alertcast/pkg/domain-errors"
)

// Service orchestrates alert authoring, subscriber state and interactions.
type Service struct {
	alerts       store.AlertStore
	interactions store.InteractionStore
	prefs        store.PreferenceStore
	tiers        store.TierStore
	admin        store.AdminStore

	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	clock     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service.
func New(
	alerts store.AlertStore,
	interactions store.InteractionStore,
	prefs store.PreferenceStore,
	tiers store.TierStore,
	admin store.AdminStore,
	opts ...Option,
) *Service {
	s := &Service{
		alerts:       alerts,
		interactions: interactions,
		prefs:        prefs,
		tiers:        tiers,
		admin:        admin,
		logger:       slog.Default(),
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireAdmin compares the caller against the current admin principal.
func (s *Service) requireAdmin(ctx context.Context, caller string) error {
	current, err := s.admin.Get(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin identity")
	}
	if caller == "" || caller != current {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the admin")
	}
	return nil
}

// CreateAlertInput carries the admin-authored alert fields.
type CreateAlertInput struct {
	Title        string
	Message      string
	Category     models.Category
	Severity     models.Severity
	RequiredTier models.Tier
}

// CreateAlert validates and persists a new alert, returning its id. All
// checks run before the store is touched.
func (s *Service) CreateAlert(ctx context.Context, caller string, in CreateAlertInput) (*models.Alert, error) {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if in.Title == "" || len(in.Title) > models.MaxTitleLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "title must be 1-%d characters", models.MaxTitleLen)
	}
	if len(in.Message) > models.MaxMessageLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "message exceeds %d characters", models.MaxMessageLen)
	}
	if !in.Category.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown category %q", in.Category)
	}
	if !in.Severity.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "severity must be 1-4, got %d", in.Severity)
	}
	if !in.RequiredTier.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown tier %q", in.RequiredTier)
	}

	alert := &models.Alert{
		Title:        in.Title,
		Message:      in.Message,
		Category:     in.Category,
		Severity:     in.Severity,
		RequiredTier: in.RequiredTier,
		CreatedAt:    s.clock(),
		Active:       true,
	}
	id, err := s.alerts.Create(ctx, alert)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create alert")
	}
	alert.ID = id

	s.incrementAlertsCreated(alert.Category)
	s.publish(ctx, events.Event{
		Type:     events.TypeAlertCreated,
		AlertID:  id,
		Category: alert.Category,
		Severity: alert.Severity,
		Actor:    caller,
	})
	return alert, nil
}

// CompleteDistribution records how many recipients were eligible. One-time:
// a repeat call is an error, not a no-op, and the first value sticks.
func (s *Service) CompleteDistribution(ctx context.Context, caller string, alertID int64, totalEligible uint64) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if totalEligible == 0 {
		return dErrors.New(dErrors.CodeValidation, "total eligible must be positive")
	}

	if err := s.alerts.CompleteDistribution(ctx, alertID, totalEligible); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		case errors.Is(err, store.ErrInvalidState):
			return dErrors.Newf(dErrors.CodeAlreadyCompleted, "distribution for alert %d already completed", alertID)
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete distribution")
		}
	}

	s.incrementDistributions()
	s.publish(ctx, events.Event{
		Type:    events.TypeDistributionCompleted,
		AlertID: alertID,
		Actor:   caller,
	})
	return nil
}

// SetImpactScore assigns or overwrites the market impact score.
func (s *Service) SetImpactScore(ctx context.Context, caller string, alertID int64, score int) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if !models.ValidImpactScore(score) {
		return dErrors.Newf(dErrors.CodeValidation, "impact score must be 0-100, got %d", score)
	}

	if err := s.alerts.SetImpactScore(ctx, alertID, score); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set impact score")
	}

	s.publish(ctx, events.Event{
		Type:    events.TypeImpactScored,
		AlertID: alertID,
		Actor:   caller,
	})
	return nil
}

// DeactivateAlert turns an alert off. Deactivation is admin-driven; there is
// no automatic expiry.
func (s *Service) DeactivateAlert(ctx context.Context, caller string, alertID int64) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.alerts.Deactivate(ctx, alertID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate alert")
	}

	s.publish(ctx, events.Event{
		Type:    events.TypeAlertDeactivated,
		AlertID: alertID,
		Actor:   caller,
	})
	return nil
}

// TransferAdmin hands the admin identity to a new principal. The swap is
// atomic; the old admin loses all privilege for the very next call.
func (s *Service) TransferAdmin(ctx context.Context, caller, next string) error {
	if next == "" {
		return dErrors.New(dErrors.CodeValidation, "new admin principal is required")
	}
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.admin.Transfer(ctx, caller, next); err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			// Lost a race with a concurrent transfer.
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not the admin")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer admin")
	}

	s.publish(ctx, events.Event{
		Type:  events.TypeAdminTransferred,
		Actor: caller,
	})
	return nil
}

// SetUserTier assigns a subscription tier to a user. Users without an
// assignment default to basic.
func (s *Service) SetUserTier(ctx context.Context, caller, user string, tier models.Tier) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if user == "" {
		return dErrors.New(dErrors.CodeValidation, "user principal is required")
	}
	if !tier.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown tier %q", tier)
	}
	if err := s.tiers.Set(ctx, user, tier); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set tier")
	}
	return nil
}

// GetUserTier returns the user's assigned tier, defaulting to basic.
func (s *Service) GetUserTier(ctx context.Context, user string) (models.Tier, error) {
	tier, err := s.tiers.Get(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		return models.TierBasic, nil
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tier")
	}
	return tier, nil
}

// SetPreferencesInput carries a full preference record; setting preferences
// replaces any prior record for the caller.
type SetPreferencesInput struct {
	Categories           []models.Category
	MinSeverityThreshold models.Severity
	EmergencyOverride    bool
	NotificationsEnabled bool
}

// SetPreferences validates and stores the caller's preference record.
func (s *Service) SetPreferences(ctx context.Context, caller string, in SetPreferencesInput) error {
	if !in.MinSeverityThreshold.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "severity threshold must be 1-4, got %d", in.MinSeverityThreshold)
	}
	for _, c := range in.Categories {
		if !c.Valid() {
			return dErrors.Newf(dErrors.CodeValidation, "unknown category %q", c)
		}
	}

	pref := &models.UserPreference{
		User:                 caller,
		SubscribedCategories: in.Categories,
		MinSeverityThreshold: in.MinSeverityThreshold,
		EmergencyOverride:    in.EmergencyOverride,
		NotificationsEnabled: in.NotificationsEnabled,
	}
	if err := s.prefs.Set(ctx, pref); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store preferences")
	}
	return nil
}

// GetPreferences returns the user's preference record, or nil when the user
// never configured one. Absence is not an error.
func (s *Service) GetPreferences(ctx context.Context, user string) (*models.UserPreference, error) {
	pref, err := s.prefs.Get(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load preferences")
	}
	return pref, nil
}

// Acknowledge records that the caller saw and confirmed the alert. Repeat
// calls fail with already_acknowledged rather than silently succeeding;
// under a duplicate race exactly one call wins.
func (s *Service) Acknowledge(ctx context.Context, caller string, alertID int64) error {
	if _, err := s.alerts.Get(ctx, alertID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}

	if err := s.interactions.Acknowledge(ctx, alertID, caller); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return dErrors.Newf(dErrors.CodeAlreadyAcknowledged, "alert %d already acknowledged", alertID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acknowledge")
	}

	s.incrementAcknowledgments()
	return nil
}

// RecordView bumps the view tally. Views are not deduplicated: repeat views
// by the same user each count.
func (s *Service) RecordView(ctx context.Context, caller string, alertID int64) error {
	if _, err := s.alerts.Get(ctx, alertID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}

	if err := s.interactions.RecordView(ctx, alertID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record view")
	}

	s.incrementViews()
	return nil
}

// CanAccess evaluates whether the user may see the alert. Critical alerts
// bypass category and tier gates when the user opted into emergency
// override; everything else requires a subscribed category, a severity at or
// above the user's threshold, and a sufficient tier. Users with no stored
// preference are denied.
func (s *Service) CanAccess(ctx context.Context, alertID int64, user string) (bool, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}

	pref, err := s.GetPreferences(ctx, user)
	if err != nil {
		return false, err
	}
	if pref == nil {
		s.countAccess(false)
		return false, nil
	}

	if alert.Severity == models.SeverityCritical && pref.EmergencyOverride {
		s.countAccess(true)
		return true, nil
	}

	tier, err := s.GetUserTier(ctx, user)
	if err != nil {
		return false, err
	}

	granted := pref.Subscribed(alert.Category) &&
		alert.Severity.AtLeastAsUrgent(pref.MinSeverityThreshold) &&
		tier.Meets(alert.RequiredTier)
	s.countAccess(granted)
	return granted, nil
}

// GetAlert returns the alert with its live interaction counters merged in.
func (s *Service) GetAlert(ctx context.Context, alertID int64) (*models.Alert, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}
	if err := s.mergeCounts(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// IsActive reports the admin-controlled active flag.
func (s *Service) IsActive(ctx context.Context, alertID int64) (bool, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID)
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}
	return alert.Active, nil
}

// AlertCount returns the total number of alerts ever created.
func (s *Service) AlertCount(ctx context.Context) (int, error) {
	n, err := s.alerts.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count alerts")
	}
	return n, nil
}

// AdminAddress returns the current admin principal.
func (s *Service) AdminAddress(ctx context.Context) (string, error) {
	admin, err := s.admin.Get(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin identity")
	}
	return admin, nil
}

func (s *Service) mergeCounts(ctx context.Context, alert *models.Alert) error {
	views, acks, err := s.interactions.Counts(ctx, alert.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load interaction counts")
	}
	alert.ViewCount = views
	alert.AcknowledgmentCount = acks
	return nil
}

// publish emits a lifecycle event. Fail-open: sink errors are logged, never
// propagated to the caller whose mutation already committed.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.clock()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"event_type", event.Type,
			"alert_id", event.AlertID,
			"error", err,
		)
	}
}

func (s *Service) incrementAlertsCreated(category models.Category) {
	if s.metrics != nil {
		s.metrics.AlertsCreated.WithLabelValues(string(category)).Inc()
	}
}

func (s *Service) incrementAcknowledgments() {
	if s.metrics != nil {
		s.metrics.Acknowledgments.Inc()
	}
}

func (s *Service) incrementViews() {
	if s.metrics != nil {
		s.metrics.Views.Inc()
	}
}

func (s *Service) incrementDistributions() {
	if s.metrics != nil {
		s.metrics.DistributionsCompleted.Inc()
	}
}

func (s *Service) countAccess(granted bool) {
	if s.metrics == nil {
		return
	}
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	s.metrics.AccessChecks.WithLabelValues(outcome).Inc()
}
