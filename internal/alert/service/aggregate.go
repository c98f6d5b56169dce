package service

import (
	"context"
	"errors"

	"alertcast/internal/alert/models"
	"alertcast/internal/alert/store"
	dErrors "alertcast/pkg/domain-errors"
)

// Rollups are recomputed from the stores on every read. An O(alerts) scan is
// acceptable because alert volume is admin-bounded, and it removes any
// incremental-cache divergence hazard.

// CategoryPerformance aggregates every alert in one category. Returns nil
// when the category has no alerts yet; an unknown category is a validation
// error.
func (s *Service) CategoryPerformance(ctx context.Context, category models.Category) (*models.CategoryPerformance, error) {
	if !category.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown category %q", category)
	}

	alerts, err := s.alerts.ListByCategory(ctx, category)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list alerts")
	}
	if len(alerts) == 0 {
		return nil, nil
	}

	perf := &models.CategoryPerformance{
		Category:   category,
		AlertCount: len(alerts),
	}
	var scoreSum, scored int
	for _, alert := range alerts {
		views, acks, err := s.interactions.Counts(ctx, alert.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load interaction counts")
		}
		perf.TotalViews += views
		perf.TotalAcknowledgments += acks
		if alert.ImpactScore != nil {
			scoreSum += *alert.ImpactScore
			scored++
		}
	}
	if scored > 0 {
		avg := float64(scoreSum) / float64(scored)
		perf.AverageImpactScore = &avg
	}
	return perf, nil
}

// AlertMetrics returns per-alert delivery statistics, or nil when the alert
// does not exist. Coverage stays nil until distribution completion.
func (s *Service) AlertMetrics(ctx context.Context, alertID int64) (*models.AlertMetrics, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}
	if err := s.mergeCounts(ctx, alert); err != nil {
		return nil, err
	}

	return &models.AlertMetrics{
		AlertID:             alert.ID,
		ViewCount:           alert.ViewCount,
		AcknowledgmentCount: alert.AcknowledgmentCount,
		Coverage:            alert.Coverage(),
	}, nil
}

// AlertDistribution reports the one-time distribution state, or nil when the
// alert does not exist.
func (s *Service) AlertDistribution(ctx context.Context, alertID int64) (*models.Distribution, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}
	if err := s.mergeCounts(ctx, alert); err != nil {
		return nil, err
	}

	return &models.Distribution{
		AlertID:       alert.ID,
		Completed:     alert.DistributionCompleted,
		TotalEligible: alert.TotalEligible,
		Coverage:      alert.Coverage(),
	}, nil
}
