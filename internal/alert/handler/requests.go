package handler

import (
	"time"

	"alertcast/internal/alert/models"
)

type createAlertRequest struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	Category     string `json:"category"`
	Severity     int    `json:"severity"`
	RequiredTier string `json:"required_tier"`
}

type completeDistributionRequest struct {
	TotalEligible uint64 `json:"total_eligible"`
}

type impactScoreRequest struct {
	Score int `json:"score"`
}

type preferencesRequest struct {
	Categories           []string `json:"categories"`
	MinSeverity          int      `json:"min_severity"`
	EmergencyOverride    bool     `json:"emergency_override"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
}

type tierRequest struct {
	Tier string `json:"tier"`
}

type transferAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

type alertResponse struct {
	ID                    int64     `json:"id"`
	Title                 string    `json:"title"`
	Message               string    `json:"message"`
	Category              string    `json:"category"`
	Severity              int       `json:"severity"`
	RequiredTier          string    `json:"required_tier"`
	CreatedAt             time.Time `json:"created_at"`
	Active                bool      `json:"active"`
	DistributionCompleted bool      `json:"distribution_completed"`
	TotalEligible         *uint64   `json:"total_eligible,omitempty"`
	ImpactScore           *int      `json:"impact_score,omitempty"`
	ViewCount             uint64    `json:"view_count"`
	AcknowledgmentCount   uint64    `json:"acknowledgment_count"`
}

func toAlertResponse(a *models.Alert) alertResponse {
	return alertResponse{
		ID:                    a.ID,
		Title:                 a.Title,
		Message:               a.Message,
		Category:              string(a.Category),
		Severity:              int(a.Severity),
		RequiredTier:          string(a.RequiredTier),
		CreatedAt:             a.CreatedAt,
		Active:                a.Active,
		DistributionCompleted: a.DistributionCompleted,
		TotalEligible:         a.TotalEligible,
		ImpactScore:           a.ImpactScore,
		ViewCount:             a.ViewCount,
		AcknowledgmentCount:   a.AcknowledgmentCount,
	}
}

type preferencesResponse struct {
	User                 string   `json:"user"`
	Categories           []string `json:"categories"`
	MinSeverity          int      `json:"min_severity"`
	EmergencyOverride    bool     `json:"emergency_override"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
}

func toPreferencesResponse(p *models.UserPreference) preferencesResponse {
	categories := make([]string, len(p.SubscribedCategories))
	for i, c := range p.SubscribedCategories {
		categories[i] = string(c)
	}
	return preferencesResponse{
		User:                 p.User,
		Categories:           categories,
		MinSeverity:          int(p.MinSeverityThreshold),
		EmergencyOverride:    p.EmergencyOverride,
		NotificationsEnabled: p.NotificationsEnabled,
	}
}

type metricsResponse struct {
	AlertID             int64    `json:"alert_id"`
	ViewCount           uint64   `json:"view_count"`
	AcknowledgmentCount uint64   `json:"acknowledgment_count"`
	Coverage            *float64 `json:"coverage,omitempty"`
}

type distributionResponse struct {
	AlertID       int64    `json:"alert_id"`
	Completed     bool     `json:"completed"`
	TotalEligible *uint64  `json:"total_eligible,omitempty"`
	Coverage      *float64 `json:"coverage,omitempty"`
}

type performanceResponse struct {
	Category             string   `json:"category"`
	AlertCount           int      `json:"alert_count"`
	TotalViews           uint64   `json:"total_views"`
	TotalAcknowledgments uint64   `json:"total_acknowledgments"`
	AverageImpactScore   *float64 `json:"average_impact_score,omitempty"`
}
