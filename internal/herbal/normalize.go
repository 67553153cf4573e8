package herbal

import (
	"fmt"
	"strings"
)

// IngredientFromAttributes builds an Ingredient from a loosely typed
// attribute map, accepting snake_case, camelCase and field_-prefixed keys.
func IngredientFromAttributes(attrs map[string]any) Ingredient {
	return Ingredient{
		HerbID:     lookupString(attrs, "herb_id", "herbId", "id"),
		Title:      lookupString(attrs, "title", "herb_title", "herbTitle", "name"),
		Quantity:   ParseNumber(lookup(attrs, "quantity", "amount")),
		Unit:       lookupString(attrs, "unit"),
		Percentage: ParseNumber(lookup(attrs, "percentage", "percent")),
		Role:       ParseRole(lookupString(attrs, "role", "tcm_role", "tcmRole")),
		Function:   lookupString(attrs, "function"),
		Notes:      lookupString(attrs, "notes"),
	}
}

// FormulaFromAttributes builds a Formula from a loosely typed attribute map.
// Inline ingredient arrays are read from "ingredients" or "herb_ingredients".
func FormulaFromAttributes(attrs map[string]any) Formula {
	formula := Formula{
		ID:              lookupString(attrs, "id"),
		Title:           lookupString(attrs, "title", "name"),
		Summary:         lookupString(attrs, "summary", "description"),
		TotalWeight:     ParseNumber(lookup(attrs, "total_weight", "totalWeight")),
		TotalWeightUnit: lookupString(attrs, "total_weight_unit", "totalWeightUnit"),
	}
	if raw, ok := lookup(attrs, "ingredients", "herb_ingredients", "herbIngredients").([]any); ok {
		for _, item := range raw {
			if entry, ok := asMap(item); ok {
				formula.Ingredients = append(formula.Ingredients, IngredientFromAttributes(entry))
			}
		}
	}
	if raw, ok := lookup(attrs, "conditions").([]any); ok {
		for _, item := range raw {
			if entry, ok := asMap(item); ok {
				formula.Conditions = append(formula.Conditions, Ref{
					ID:    lookupString(entry, "id"),
					Title: lookupString(entry, "title", "name"),
				})
			}
		}
	}
	return formula
}

func lookup(attrs map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := attrs[key]; ok && value != nil {
			return value
		}
		if value, ok := attrs["field_"+key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func lookupString(attrs map[string]any, keys ...string) string {
	switch v := lookup(attrs, keys...).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		// Rich text fields arrive as {"value": "...", "format": "..."}.
		if inner, ok := v["value"].(string); ok {
			return strings.TrimSpace(inner)
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// asMap accepts both map[string]any (encoding/json) and map[any]any style
// maps produced by some YAML decoders.
func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = item
		}
		return out, true
	default:
		return nil, false
	}
}
