package models

// UserPreference captures a subscriber's filtering settings. At most one
// record per user; updates replace the whole record rather than merging.
type UserPreference struct {
	User                 string
	SubscribedCategories []Category
	// MinSeverityThreshold marks the least urgent severity the user still
	// wants; alerts with severity numerically <= threshold are of interest.
	MinSeverityThreshold Severity
	// EmergencyOverride lets Critical alerts bypass category and tier gates.
	EmergencyOverride    bool
	NotificationsEnabled bool
}

// Subscribed reports whether the user opted into the given category.
func (p *UserPreference) Subscribed(c Category) bool {
	for _, sub := range p.SubscribedCategories {
		if sub == c {
			return true
		}
	}
	return false
}
