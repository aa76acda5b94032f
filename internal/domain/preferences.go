package domain

// BudgetRange is the traveller's spending tier.
type BudgetRange string

const (
	BudgetRangeBudget   BudgetRange = "budget"
	BudgetRangeMidRange BudgetRange = "mid-range"
	BudgetRangeLuxury   BudgetRange = "luxury"
)

// Preferences describes how the traveller likes to travel. It lives on the
// trip in memory only; the remote schema has no column for it.
type Preferences struct {
	TravelStyle   []string    `json:"travel_style"`
	Interests     []string    `json:"interests"`
	BudgetRange   BudgetRange `json:"budget_range"`
	GroupSize     int         `json:"group_size"`
	Accessibility []string    `json:"accessibility"`
}

// DefaultPreferences returns the preferences every new or reloaded trip starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		TravelStyle:   []string{},
		Interests:     []string{},
		BudgetRange:   BudgetRangeMidRange,
		GroupSize:     1,
		Accessibility: []string{},
	}
}

// Clone returns a copy that shares no slices with p.
func (p Preferences) Clone() Preferences {
	out := p
	out.TravelStyle = append([]string{}, p.TravelStyle...)
	out.Interests = append([]string{}, p.Interests...)
	out.Accessibility = append([]string{}, p.Accessibility...)
	return out
}

// PreferencesPatch is a partial update. Nil fields are left untouched; a
// non-nil field replaces the whole value, slices included.
type PreferencesPatch struct {
	TravelStyle   *[]string    `json:"travel_style,omitempty"`
	Interests     *[]string    `json:"interests,omitempty"`
	BudgetRange   *BudgetRange `json:"budget_range,omitempty"`
	GroupSize     *int         `json:"group_size,omitempty"`
	Accessibility *[]string    `json:"accessibility,omitempty"`
}

// Apply merges the patch into p and returns the result.
func (pp PreferencesPatch) Apply(p Preferences) Preferences {
	out := p.Clone()
	if pp.TravelStyle != nil {
		out.TravelStyle = append([]string{}, *pp.TravelStyle...)
	}
	if pp.Interests != nil {
		out.Interests = append([]string{}, *pp.Interests...)
	}
	if pp.BudgetRange != nil {
		out.BudgetRange = *pp.BudgetRange
	}
	if pp.GroupSize != nil {
		out.GroupSize = *pp.GroupSize
	}
	if pp.Accessibility != nil {
		out.Accessibility = append([]string{}, *pp.Accessibility...)
	}
	return out
}

// Validate rejects patches that would leave the preferences in an invalid state.
func (pp PreferencesPatch) Validate() error {
	if pp.BudgetRange != nil {
		switch *pp.BudgetRange {
		case BudgetRangeBudget, BudgetRangeMidRange, BudgetRangeLuxury:
		default:
			return validationf("unknown budget_range %q", *pp.BudgetRange)
		}
	}
	if pp.GroupSize != nil && *pp.GroupSize < 1 {
		return validationf("group_size must be at least 1")
	}
	return nil
}
