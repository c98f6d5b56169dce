package models

import "time"

// Category classifies an alert. The set is fixed; there is no dynamic
// category registration.
type Category string

const (
	CategoryRegulation  Category = "regulation"
	CategoryMarket      Category = "market"
	CategorySecurity    Category = "security"
	CategoryExchange    Category = "exchange"
	CategoryPartnership Category = "partnership"
)

// Categories lists every valid category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryRegulation,
		CategoryMarket,
		CategorySecurity,
		CategoryExchange,
		CategoryPartnership,
	}
}

// Valid reports whether c is a member of the fixed category set. Matching is
// case-sensitive against the literal names.
func (c Category) Valid() bool {
	switch c {
	case CategoryRegulation, CategoryMarket, CategorySecurity, CategoryExchange, CategoryPartnership:
		return true
	}
	return false
}

// Severity ranks urgency. Lower numeric value means more urgent.
type Severity int

const (
	SeverityCritical Severity = 1
	SeverityHigh     Severity = 2
	SeverityMedium   Severity = 3
	SeverityLow      Severity = 4
)

// Valid reports whether s is one of the four defined levels.
func (s Severity) Valid() bool {
	return s >= SeverityCritical && s <= SeverityLow
}

// AtLeastAsUrgent reports whether s is as urgent as threshold or more so.
// Severity 1 (Critical) is the most urgent, so "of interest" means s <= threshold.
func (s Severity) AtLeastAsUrgent(threshold Severity) bool {
	return s <= threshold
}

// Tier is the access level required to view an alert. Ordering is an explicit
// total order: basic < pro < elite. Elite subsumes pro, pro subsumes basic.
type Tier string

const (
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
	TierElite Tier = "elite"
)

// Valid reports whether t is one of the three defined tiers (exact literal match).
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierPro, TierElite:
		return true
	}
	return false
}

// rank maps a tier to its position in the total order. Invalid tiers rank
// below basic so they never satisfy a gate.
func (t Tier) rank() int {
	switch t {
	case TierBasic:
		return 0
	case TierPro:
		return 1
	case TierElite:
		return 2
	}
	return -1
}

// Meets reports whether a holder of tier t clears the required tier.
func (t Tier) Meets(required Tier) bool {
	return t.rank() >= required.rank()
}

// ValidImpactScore reports whether n is a valid market impact score.
// The range is inclusive on both ends.
func ValidImpactScore(n int) bool {
	return n >= 0 && n <= 100
}

// MaxTitleLen and MaxMessageLen bound alert text fields.
const (
	MaxTitleLen   = 128
	MaxMessageLen = 512
)

// Alert is an admin-authored notice. Created once, never deleted. Counters
// only ever move up; TotalEligible is set exactly once by distribution
// completion; ImpactScore may be rewritten.
type Alert struct {
	ID                    int64
	Title                 string
	Message               string
	Category              Category
	Severity              Severity
	RequiredTier          Tier
	CreatedAt             time.Time
	Active                bool
	DistributionCompleted bool
	TotalEligible         *uint64
	ImpactScore           *int
	ViewCount             uint64
	AcknowledgmentCount   uint64
}

// Coverage returns acknowledgments over eligible recipients, or nil before
// distribution completion.
func (a *Alert) Coverage() *float64 {
	if !a.DistributionCompleted || a.TotalEligible == nil || *a.TotalEligible == 0 {
		return nil
	}
	c := float64(a.AcknowledgmentCount) / float64(*a.TotalEligible)
	return &c
}

// CategoryPerformance is a derived rollup over every alert in one category.
// It is recomputed on read, never stored.
type CategoryPerformance struct {
	Category             Category
	AlertCount           int
	TotalViews           uint64
	TotalAcknowledgments uint64
	// AverageImpactScore averages only alerts that have a score; nil when none do.
	AverageImpactScore *float64
}

// AlertMetrics is the per-alert delivery rollup.
type AlertMetrics struct {
	AlertID             int64
	ViewCount           uint64
	AcknowledgmentCount uint64
	// Coverage is nil until distribution completion records TotalEligible.
	Coverage *float64
}

// Distribution reports the one-time distribution completion state.
type Distribution struct {
	AlertID       int64
	Completed     bool
	TotalEligible *uint64
	Coverage      *float64
}
