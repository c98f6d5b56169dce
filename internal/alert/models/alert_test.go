package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Valid(), "category %q should be valid", c)
	}

	invalid := []Category{"", "invalid-category", "Regulation", "MARKET", "markets", " market"}
	for _, c := range invalid {
		assert.False(t, c.Valid(), "category %q should be invalid", c)
	}
}

func TestSeverityValid(t *testing.T) {
	for s := SeverityCritical; s <= SeverityLow; s++ {
		assert.True(t, s.Valid(), "severity %d should be valid", s)
	}
	for _, s := range []Severity{0, -1, 5, 10, 20} {
		assert.False(t, s.Valid(), "severity %d should be invalid", s)
	}
}

func TestSeverityAtLeastAsUrgent(t *testing.T) {
	// Critical (1) clears every threshold; Low (4) only clears Low.
	assert.True(t, SeverityCritical.AtLeastAsUrgent(SeverityCritical))
	assert.True(t, SeverityCritical.AtLeastAsUrgent(SeverityLow))
	assert.True(t, SeverityLow.AtLeastAsUrgent(SeverityLow))
	assert.False(t, SeverityLow.AtLeastAsUrgent(SeverityCritical))
	assert.False(t, SeverityMedium.AtLeastAsUrgent(SeverityHigh))
}

func TestTierValid(t *testing.T) {
	for _, tier := range []Tier{TierBasic, TierPro, TierElite} {
		assert.True(t, tier.Valid(), "tier %q should be valid", tier)
	}
	for _, tier := range []Tier{"", "Basic", "PRO", "gold", "elite "} {
		assert.False(t, tier.Valid(), "tier %q should be invalid", tier)
	}
}

func TestTierMeets(t *testing.T) {
	assert.True(t, TierElite.Meets(TierBasic))
	assert.True(t, TierElite.Meets(TierPro))
	assert.True(t, TierElite.Meets(TierElite))
	assert.True(t, TierPro.Meets(TierBasic))
	assert.False(t, TierPro.Meets(TierElite))
	assert.False(t, TierBasic.Meets(TierPro))
	assert.True(t, TierBasic.Meets(TierBasic))

	// Unknown tiers never clear a gate, not even basic.
	assert.False(t, Tier("gold").Meets(TierBasic))
}

func TestValidImpactScore(t *testing.T) {
	assert.True(t, ValidImpactScore(0))
	assert.True(t, ValidImpactScore(100))
	assert.True(t, ValidImpactScore(85))
	assert.False(t, ValidImpactScore(-1))
	assert.False(t, ValidImpactScore(101))
	assert.False(t, ValidImpactScore(150))
}

func TestAlertCoverage(t *testing.T) {
	alert := &Alert{AcknowledgmentCount: 250}
	assert.Nil(t, alert.Coverage(), "coverage undefined before distribution completion")

	eligible := uint64(500)
	alert.DistributionCompleted = true
	alert.TotalEligible = &eligible

	cov := alert.Coverage()
	if assert.NotNil(t, cov) {
		assert.InDelta(t, 0.5, *cov, 1e-9)
	}
}

func TestPreferenceSubscribed(t *testing.T) {
	pref := &UserPreference{
		SubscribedCategories: []Category{CategoryRegulation, CategoryMarket},
	}
	assert.True(t, pref.Subscribed(CategoryRegulation))
	assert.True(t, pref.Subscribed(CategoryMarket))
	assert.False(t, pref.Subscribed(CategorySecurity))

	empty := &UserPreference{}
	assert.False(t, empty.Subscribed(CategoryMarket))
}
