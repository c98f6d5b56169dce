package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"alertcast/internal/alert/models"
	"alertcast/internal/alert/service"
	"alertcast/internal/platform/middleware"
	"alertcast/internal/transport/http/shared"
	dErrors "alertcast/pkg/domain-errors"
)

// Service defines the engine operations the HTTP layer needs.
type Service interface {
	CreateAlert(ctx context.Context, caller string, in service.CreateAlertInput) (*models.Alert, error)
	CompleteDistribution(ctx context.Context, caller string, alertID int64, totalEligible uint64) error
	SetImpactScore(ctx context.Context, caller string, alertID int64, score int) error
	DeactivateAlert(ctx context.Context, caller string, alertID int64) error
	TransferAdmin(ctx context.Context, caller, next string) error
	SetUserTier(ctx context.Context, caller, user string, tier models.Tier) error
	SetPreferences(ctx context.Context, caller string, in service.SetPreferencesInput) error
	GetPreferences(ctx context.Context, user string) (*models.UserPreference, error)
	Acknowledge(ctx context.Context, caller string, alertID int64) error
	RecordView(ctx context.Context, caller string, alertID int64) error
	CanAccess(ctx context.Context, alertID int64, user string) (bool, error)
	GetAlert(ctx context.Context, alertID int64) (*models.Alert, error)
	IsActive(ctx context.Context, alertID int64) (bool, error)
	AlertCount(ctx context.Context) (int, error)
	AdminAddress(ctx context.Context) (string, error)
	CategoryPerformance(ctx context.Context, category models.Category) (*models.CategoryPerformance, error)
	AlertMetrics(ctx context.Context, alertID int64) (*models.AlertMetrics, error)
	AlertDistribution(ctx context.Context, alertID int64) (*models.Distribution, error)
}

// Handler wires the alert engine to HTTP routes. It decodes, delegates, and
// writes; business rules live in the service.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register registers the alert routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/alerts", func(r chi.Router) {
		r.Post("/", h.handleCreateAlert)
		r.Get("/count", h.handleAlertCount)
		r.Route("/{alertID}", func(r chi.Router) {
			r.Get("/", h.handleGetAlert)
			r.Get("/active", h.handleIsActive)
			r.Post("/deactivate", h.handleDeactivate)
			r.Post("/distribution", h.handleCompleteDistribution)
			r.Get("/distribution", h.handleDistribution)
			r.Put("/impact", h.handleSetImpactScore)
			r.Post("/acknowledge", h.handleAcknowledge)
			r.Post("/views", h.handleRecordView)
			r.Get("/access", h.handleCanAccess)
			r.Get("/metrics", h.handleAlertMetrics)
		})
	})
	r.Put("/preferences", h.handleSetPreferences)
	r.Get("/preferences/{user}", h.handleGetPreferences)
	r.Put("/users/{user}/tier", h.handleSetUserTier)
	r.Get("/categories/{category}/performance", h.handleCategoryPerformance)
	r.Get("/admin", h.handleAdminAddress)
	r.Post("/admin/transfer", h.handleTransferAdmin)
}

func (h *Handler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	alert, err := h.svc.CreateAlert(ctx, middleware.GetPrincipal(ctx), service.CreateAlertInput{
		Title:        req.Title,
		Message:      req.Message,
		Category:     models.Category(req.Category),
		Severity:     models.Severity(req.Severity),
		RequiredTier: models.Tier(req.RequiredTier),
	})
	if err != nil {
		h.logFailure(ctx, "create alert", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toAlertResponse(alert))
}

func (h *Handler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	alert, err := h.svc.GetAlert(r.Context(), alertID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toAlertResponse(alert))
}

func (h *Handler) handleIsActive(w http.ResponseWriter, r *http.Request) {
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	active, err := h.svc.IsActive(r.Context(), alertID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateAlert(ctx, middleware.GetPrincipal(ctx), alertID); err != nil {
		h.logFailure(ctx, "deactivate alert", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCompleteDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	var req completeDistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.svc.CompleteDistribution(ctx, middleware.GetPrincipal(ctx), alertID, req.TotalEligible); err != nil {
		h.logFailure(ctx, "complete distribution", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	dist, err := h.svc.AlertDistribution(r.Context(), alertID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if dist == nil {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID))
		return
	}
	shared.WriteJSON(w, http.StatusOK, distributionResponse{
		AlertID:       dist.AlertID,
		Completed:     dist.Completed,
		TotalEligible: dist.TotalEligible,
		Coverage:      dist.Coverage,
	})
}

func (h *Handler) handleSetImpactScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	var req impactScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.svc.SetImpactScore(ctx, middleware.GetPrincipal(ctx), alertID, req.Score); err != nil {
		h.logFailure(ctx, "set impact score", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Acknowledge(ctx, middleware.GetPrincipal(ctx), alertID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RecordView(ctx, middleware.GetPrincipal(ctx), alertID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCanAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	user := r.URL.Query().Get("user")
	if user == "" {
		user = middleware.GetPrincipal(ctx)
	}
	granted, err := h.svc.CanAccess(ctx, alertID, user)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"can_access": granted})
}

func (h *Handler) handleAlertMetrics(w http.ResponseWriter, r *http.Request) {
	alertID, ok := h.alertID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.AlertMetrics(r.Context(), alertID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if m == nil {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "alert %d not found", alertID))
		return
	}
	shared.WriteJSON(w, http.StatusOK, metricsResponse{
		AlertID:             m.AlertID,
		ViewCount:           m.ViewCount,
		AcknowledgmentCount: m.AcknowledgmentCount,
		Coverage:            m.Coverage,
	})
}

func (h *Handler) handleAlertCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.AlertCount(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	categories := make([]models.Category, len(req.Categories))
	for i, c := range req.Categories {
		categories[i] = models.Category(c)
	}
	err := h.svc.SetPreferences(ctx, middleware.GetPrincipal(ctx), service.SetPreferencesInput{
		Categories:           categories,
		MinSeverityThreshold: models.Severity(req.MinSeverity),
		EmergencyOverride:    req.EmergencyOverride,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	pref, err := h.svc.GetPreferences(r.Context(), user)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if pref == nil {
		// Never configured: absence, not an error.
		shared.WriteJSON(w, http.StatusOK, map[string]any{"user": user, "configured": false})
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPreferencesResponse(pref))
}

func (h *Handler) handleSetUserTier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := chi.URLParam(r, "user")
	var req tierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.svc.SetUserTier(ctx, middleware.GetPrincipal(ctx), user, models.Tier(req.Tier)); err != nil {
		h.logFailure(ctx, "set user tier", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCategoryPerformance(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	perf, err := h.svc.CategoryPerformance(r.Context(), category)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if perf == nil {
		shared.WriteJSON(w, http.StatusOK, map[string]any{"category": string(category), "alert_count": 0})
		return
	}
	shared.WriteJSON(w, http.StatusOK, performanceResponse{
		Category:             string(perf.Category),
		AlertCount:           perf.AlertCount,
		TotalViews:           perf.TotalViews,
		TotalAcknowledgments: perf.TotalAcknowledgments,
		AverageImpactScore:   perf.AverageImpactScore,
	})
}

func (h *Handler) handleAdminAddress(w http.ResponseWriter, r *http.Request) {
	admin, err := h.svc.AdminAddress(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"admin": admin})
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req transferAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.svc.TransferAdmin(ctx, middleware.GetPrincipal(ctx), req.NewAdmin); err != nil {
		h.logFailure(ctx, "transfer admin", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) alertID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "alertID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "invalid alert id %q", raw))
		return 0, false
	}
	return id, true
}

func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "operation failed",
		"op", op,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}
