package domain

// Priority selects the comparator family used to order alternatives.
type Priority string

const (
	PriorityEcoFriendly Priority = "eco_friendly"
	PrioritySaveMoney   Priority = "save_money"
	PriorityQuality     Priority = "quality"
	PriorityBalanced    Priority = "balanced"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityEcoFriendly, PrioritySaveMoney, PriorityQuality, PriorityBalanced:
		return true
	}
	return false
}

// UserPreferences are the shopper's persisted settings, read by the
// preference policy and the candidate filter on every run.
// MaxBudget and MinRating of zero mean "no limit".
type UserPreferences struct {
	Priority        Priority `json:"priority"`
	MaxBudget       float64  `json:"maxBudget,omitempty"`
	MinRating       float64  `json:"minRating,omitempty"`
	EnableCooldown  bool     `json:"enableCooldown"`
	CooldownSeconds int      `json:"cooldownSeconds"`
	ShowCO2         bool     `json:"showCO2"`
}

// DefaultPreferences returns the settings applied on first run.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Priority:        PriorityEcoFriendly,
		EnableCooldown:  true,
		CooldownSeconds: 30,
		ShowCO2:         true,
	}
}

// PreferencesPatch is a partial preferences update; nil fields are left
// unchanged by Apply.
type PreferencesPatch struct {
	Priority        *Priority `json:"priority,omitempty"`
	MaxBudget       *float64  `json:"maxBudget,omitempty"`
	MinRating       *float64  `json:"minRating,omitempty"`
	EnableCooldown  *bool     `json:"enableCooldown,omitempty"`
	CooldownSeconds *int      `json:"cooldownSeconds,omitempty"`
	ShowCO2         *bool     `json:"showCO2,omitempty"`
}

// Apply merges the patch into prefs and returns the result.
func (p PreferencesPatch) Apply(prefs UserPreferences) UserPreferences {
	if p.Priority != nil {
		prefs.Priority = *p.Priority
	}
	if p.MaxBudget != nil {
		prefs.MaxBudget = *p.MaxBudget
	}
	if p.MinRating != nil {
		prefs.MinRating = *p.MinRating
	}
	if p.EnableCooldown != nil {
		prefs.EnableCooldown = *p.EnableCooldown
	}
	if p.CooldownSeconds != nil {
		prefs.CooldownSeconds = *p.CooldownSeconds
	}
	if p.ShowCO2 != nil {
		prefs.ShowCO2 = *p.ShowCO2
	}
	return prefs
}
