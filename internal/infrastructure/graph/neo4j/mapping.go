package neo4j

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// kindFromLabels maps node labels onto the domain enum. Every
// label-based branch in the adapter goes through this function;
// unrecognized labels map to KindUnknown instead of leaking raw
// strings into the core.
func kindFromLabels(labels []string) domain.NodeKind {
	for _, label := range labels {
		switch label {
		case "Recipe":
			return domain.KindRecipe
		case "Ingredient":
			return domain.KindIngredient
		case "Condiment":
			return domain.KindCondiment
		case "Tag":
			return domain.KindTag
		case "Flavor":
			return domain.KindFlavor
		case "Tool":
			return domain.KindTool
		case "User":
			return domain.KindUser
		}
	}
	return domain.KindUnknown
}

func recordString(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	s, _ := val.(string)
	return s
}

func recordInt(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func recordStringSlice(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	raw, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// recordParts decodes a list of {name, amount} maps produced by
// collect() over an edge-bearing pattern.
func recordParts(record *neo4j.Record, key string) []domain.RecipePart {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	raw, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.RecipePart, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		amount, _ := m["amount"].(string)
		out = append(out, domain.RecipePart{Name: name, Amount: amount})
	}
	return out
}
