package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"alertcast/internal/alert/models"
)

// Open connects to Postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the engine's tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS alerts (
			id                     BIGSERIAL PRIMARY KEY,
			title                  TEXT NOT NULL,
			message                TEXT NOT NULL,
			category               TEXT NOT NULL,
			severity               INT NOT NULL,
			required_tier          TEXT NOT NULL,
			created_at             TIMESTAMPTZ NOT NULL,
			active                 BOOLEAN NOT NULL DEFAULT TRUE,
			distribution_completed BOOLEAN NOT NULL DEFAULT FALSE,
			total_eligible         BIGINT,
			impact_score           INT
		);
		CREATE TABLE IF NOT EXISTS alert_views (
			alert_id   BIGINT PRIMARY KEY,
			view_count BIGINT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS alert_acknowledgments (
			alert_id  BIGINT NOT NULL,
			principal TEXT NOT NULL,
			PRIMARY KEY (alert_id, principal)
		);
		CREATE TABLE IF NOT EXISTS user_preferences (
			principal              TEXT PRIMARY KEY,
			subscribed_categories  TEXT[] NOT NULL,
			min_severity_threshold INT NOT NULL,
			emergency_override     BOOLEAN NOT NULL,
			notifications_enabled  BOOLEAN NOT NULL
		);
		CREATE TABLE IF NOT EXISTS user_tiers (
			principal TEXT PRIMARY KEY,
			tier      TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS admin_identity (
			singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			principal TEXT NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PostgresAlertStore persists alert records in PostgreSQL. State transitions
// rely on single-statement atomicity: conditional updates report through
// RowsAffected whether the guard held.
type PostgresAlertStore struct {
	db *sql.DB
}

func NewPostgresAlertStore(db *sql.DB) *PostgresAlertStore {
	return &PostgresAlertStore{db: db}
}

func (s *PostgresAlertStore) Create(ctx context.Context, alert *models.Alert) (int64, error) {
	const query = `
		INSERT INTO alerts (title, message, category, severity, required_tier, created_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		alert.Title, alert.Message, string(alert.Category), int(alert.Severity),
		string(alert.RequiredTier), alert.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create alert: %w", err)
	}
	return id, nil
}

func (s *PostgresAlertStore) Get(ctx context.Context, id int64) (*models.Alert, error) {
	const query = `
		SELECT id, title, message, category, severity, required_tier, created_at,
		       active, distribution_completed, total_eligible, impact_score
		FROM alerts WHERE id = $1
	`
	return scanAlert(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresAlertStore) List(ctx context.Context) ([]*models.Alert, error) {
	const query = `
		SELECT id, title, message, category, severity, required_tier, created_at,
		       active, distribution_completed, total_eligible, impact_score
		FROM alerts ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *PostgresAlertStore) ListByCategory(ctx context.Context, category models.Category) ([]*models.Alert, error) {
	const query = `
		SELECT id, title, message, category, severity, required_tier, created_at,
		       active, distribution_completed, total_eligible, impact_score
		FROM alerts WHERE category = $1 ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("list alerts by category: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *PostgresAlertStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return n, nil
}

func (s *PostgresAlertStore) CompleteDistribution(ctx context.Context, id int64, totalEligible uint64) error {
	const query = `
		UPDATE alerts
		SET distribution_completed = TRUE, total_eligible = $2
		WHERE id = $1 AND distribution_completed = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, id, int64(totalEligible))
	if err != nil {
		return fmt.Errorf("complete distribution: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// Either the alert is missing or it was already completed.
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

func (s *PostgresAlertStore) SetImpactScore(ctx context.Context, id int64, score int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET impact_score = $2 WHERE id = $1`, id, score)
	if err != nil {
		return fmt.Errorf("set impact score: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresAlertStore) Deactivate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate alert: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		alert         models.Alert
		category      string
		severity      int
		tier          string
		totalEligible sql.NullInt64
		impactScore   sql.NullInt64
	)
	err := row.Scan(&alert.ID, &alert.Title, &alert.Message, &category, &severity, &tier,
		&alert.CreatedAt, &alert.Active, &alert.DistributionCompleted, &totalEligible, &impactScore)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	alert.Category = models.Category(category)
	alert.Severity = models.Severity(severity)
	alert.RequiredTier = models.Tier(tier)
	if totalEligible.Valid {
		v := uint64(totalEligible.Int64)
		alert.TotalEligible = &v
	}
	if impactScore.Valid {
		v := int(impactScore.Int64)
		alert.ImpactScore = &v
	}
	return &alert, nil
}

func collectAlerts(rows *sql.Rows) ([]*models.Alert, error) {
	var out []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

// PostgresInteractionStore tracks views and acknowledgments. Acknowledgment
// uniqueness is enforced by the primary key; ON CONFLICT DO NOTHING turns the
// losing insert of a race into ErrAlreadyExists via RowsAffected.
type PostgresInteractionStore struct {
	db *sql.DB
}

func NewPostgresInteractionStore(db *sql.DB) *PostgresInteractionStore {
	return &PostgresInteractionStore{db: db}
}

func (s *PostgresInteractionStore) RecordView(ctx context.Context, alertID int64) error {
	const query = `
		INSERT INTO alert_views (alert_id, view_count) VALUES ($1, 1)
		ON CONFLICT (alert_id) DO UPDATE SET view_count = alert_views.view_count + 1
	`
	if _, err := s.db.ExecContext(ctx, query, alertID); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (s *PostgresInteractionStore) Acknowledge(ctx context.Context, alertID int64, user string) error {
	const query = `
		INSERT INTO alert_acknowledgments (alert_id, principal) VALUES ($1, $2)
		ON CONFLICT (alert_id, principal) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, alertID, user)
	if err != nil {
		return fmt.Errorf("acknowledge: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *PostgresInteractionStore) HasAcknowledged(ctx context.Context, alertID int64, user string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM alert_acknowledgments WHERE alert_id = $1 AND principal = $2)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, alertID, user).Scan(&exists); err != nil {
		return false, fmt.Errorf("has acknowledged: %w", err)
	}
	return exists, nil
}

func (s *PostgresInteractionStore) Counts(ctx context.Context, alertID int64) (uint64, uint64, error) {
	const query = `
		SELECT COALESCE((SELECT view_count FROM alert_views WHERE alert_id = $1), 0),
		       (SELECT COUNT(*) FROM alert_acknowledgments WHERE alert_id = $1)
	`
	var views, acks int64
	if err := s.db.QueryRowContext(ctx, query, alertID).Scan(&views, &acks); err != nil {
		return 0, 0, fmt.Errorf("interaction counts: %w", err)
	}
	return uint64(views), uint64(acks), nil
}

// PostgresPreferenceStore upserts the full preference record per user.
type PostgresPreferenceStore struct {
	db *sql.DB
}

func NewPostgresPreferenceStore(db *sql.DB) *PostgresPreferenceStore {
	return &PostgresPreferenceStore{db: db}
}

func (s *PostgresPreferenceStore) Set(ctx context.Context, pref *models.UserPreference) error {
	const query = `
		INSERT INTO user_preferences
			(principal, subscribed_categories, min_severity_threshold, emergency_override, notifications_enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (principal) DO UPDATE SET
			subscribed_categories  = EXCLUDED.subscribed_categories,
			min_severity_threshold = EXCLUDED.min_severity_threshold,
			emergency_override     = EXCLUDED.emergency_override,
			notifications_enabled  = EXCLUDED.notifications_enabled
	`
	categories := make([]string, len(pref.SubscribedCategories))
	for i, c := range pref.SubscribedCategories {
		categories[i] = string(c)
	}
	_, err := s.db.ExecContext(ctx, query,
		pref.User, pq.Array(categories), int(pref.MinSeverityThreshold),
		pref.EmergencyOverride, pref.NotificationsEnabled,
	)
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	return nil
}

func (s *PostgresPreferenceStore) Get(ctx context.Context, user string) (*models.UserPreference, error) {
	const query = `
		SELECT subscribed_categories, min_severity_threshold, emergency_override, notifications_enabled
		FROM user_preferences WHERE principal = $1
	`
	var (
		categories pq.StringArray
		severity   int
		pref       models.UserPreference
	)
	err := s.db.QueryRowContext(ctx, query, user).Scan(&categories, &severity, &pref.EmergencyOverride, &pref.NotificationsEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	pref.User = user
	pref.MinSeverityThreshold = models.Severity(severity)
	pref.SubscribedCategories = make([]models.Category, len(categories))
	for i, c := range categories {
		pref.SubscribedCategories[i] = models.Category(c)
	}
	return &pref, nil
}

// PostgresTierStore persists admin-assigned tiers.
type PostgresTierStore struct {
	db *sql.DB
}

func NewPostgresTierStore(db *sql.DB) *PostgresTierStore {
	return &PostgresTierStore{db: db}
}

func (s *PostgresTierStore) Set(ctx context.Context, user string, tier models.Tier) error {
	const query = `
		INSERT INTO user_tiers (principal, tier) VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET tier = EXCLUDED.tier
	`
	if _, err := s.db.ExecContext(ctx, query, user, string(tier)); err != nil {
		return fmt.Errorf("set tier: %w", err)
	}
	return nil
}

func (s *PostgresTierStore) Get(ctx context.Context, user string) (models.Tier, error) {
	var tier string
	err := s.db.QueryRowContext(ctx, `SELECT tier FROM user_tiers WHERE principal = $1`, user).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get tier: %w", err)
	}
	return models.Tier(tier), nil
}

// PostgresAdminStore keeps the admin principal in a single-row table.
// Transfer's WHERE clause gives compare-and-swap semantics.
type PostgresAdminStore struct {
	db *sql.DB
}

// NewPostgresAdminStore seeds the row with the deployment-time owner when the
// table is empty; an existing row wins over the seed.
func NewPostgresAdminStore(ctx context.Context, db *sql.DB, initial string) (*PostgresAdminStore, error) {
	const seed = `
		INSERT INTO admin_identity (singleton, principal) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO NOTHING
	`
	if _, err := db.ExecContext(ctx, seed, initial); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return &PostgresAdminStore{db: db}, nil
}

func (s *PostgresAdminStore) Get(ctx context.Context) (string, error) {
	var principal string
	if err := s.db.QueryRowContext(ctx, `SELECT principal FROM admin_identity`).Scan(&principal); err != nil {
		return "", fmt.Errorf("get admin: %w", err)
	}
	return principal, nil
}

func (s *PostgresAdminStore) Transfer(ctx context.Context, current, next string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE admin_identity SET principal = $2 WHERE principal = $1`, current, next)
	if err != nil {
		return fmt.Errorf("transfer admin: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrInvalidState
	}
	return nil
}
