package domain

import "time"

// InteractionAction is one of the typed user→recipe relations.
type InteractionAction string

const (
	ActionSearched InteractionAction = "searched"
	ActionCooked   InteractionAction = "cooked"
	ActionLiked    InteractionAction = "liked"
)

// ValidAction reports whether a is a known interaction action.
func ValidAction(a InteractionAction) bool {
	switch a {
	case ActionSearched, ActionCooked, ActionLiked:
		return true
	}
	return false
}

// Interaction is one record of the user's history with a recipe.
type Interaction struct {
	Action InteractionAction `json:"action"`
	Recipe string            `json:"recipe"`
	Count  int               `json:"count,omitempty"`
	Rating int               `json:"rating,omitempty"`
	At     time.Time         `json:"at,omitempty"`
}

// InteractionEvent is the queue payload for an explicit user action.
type InteractionEvent struct {
	UserID string            `json:"user_id"`
	Action InteractionAction `json:"action"`
	Recipe string            `json:"recipe"`
	Rating int               `json:"rating,omitempty"`
	At     time.Time         `json:"at,omitempty"`
}

// PreferenceDocument is the persisted per-user accumulated interest
// sets. Sets only ever grow: merges are unions, never replacements.
type PreferenceDocument struct {
	Flavors     []string `json:"flavors"`
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
}

// IsEmpty reports whether no interest of any kind is recorded.
func (p PreferenceDocument) IsEmpty() bool {
	return len(p.Flavors) == 0 && len(p.Tags) == 0 && len(p.Ingredients) == 0
}

// Merge unions other into p, preserving existing order and appending
// unseen values. Returns true when anything was added.
func (p *PreferenceDocument) Merge(other PreferenceDocument) bool {
	changed := false
	p.Flavors, changed = unionInto(p.Flavors, other.Flavors, changed)
	p.Tags, changed = unionInto(p.Tags, other.Tags, changed)
	p.Ingredients, changed = unionInto(p.Ingredients, other.Ingredients, changed)
	return changed
}

func unionInto(dst, src []string, changed bool) ([]string, bool) {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range src {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
		changed = true
	}
	return dst, changed
}

// UserData is the per-request snapshot of one user's history and
// preference document.
type UserData struct {
	UserID      string             `json:"user_id"`
	History     []Interaction      `json:"history"`
	Preferences PreferenceDocument `json:"preferences"`
}

// ExtractedPreferences is the output of the rule-based preference
// extractor. HasPreference is true iff at least one list is non-empty.
type ExtractedPreferences struct {
	DishesCooked  []string `json:"dishes_cooked"`
	DishesLiked   []string `json:"dishes_liked"`
	Flavors       []string `json:"flavors"`
	Tags          []string `json:"tags"`
	Ingredients   []string `json:"ingredients"`
	HasPreference bool     `json:"has_preference"`
}

// Vocabulary is the graph-derived entity snapshot the preference
// extractor matches against.
type Vocabulary struct {
	Dishes      []string `json:"dishes"`
	Ingredients []string `json:"ingredients"`
	Flavors     []string `json:"flavors"`
	Tags        []string `json:"tags"`
}
