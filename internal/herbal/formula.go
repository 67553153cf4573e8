package herbal

import (
	"fmt"
	"strings"
)

const (
	// DefaultIngredientTitle is shown when an ingredient carries no name.
	DefaultIngredientTitle = "Herb"
	// DefaultUnit applies when an ingredient has no unit.
	DefaultUnit = "g"
)

// Ingredient is a single herb line of a formula.
type Ingredient struct {
	HerbID     string  `json:"herb_id,omitempty" yaml:"herb_id,omitempty"`
	Title      string  `json:"title" yaml:"title"`
	Quantity   float64 `json:"quantity" yaml:"quantity"`
	Unit       string  `json:"unit" yaml:"unit"`
	Percentage float64 `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	Role       Role    `json:"role,omitempty" yaml:"role,omitempty"`
	Function   string  `json:"function,omitempty" yaml:"function,omitempty"`
	Notes      string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// DisplayTitle returns the ingredient title or the generic fallback.
func (i Ingredient) DisplayTitle() string {
	if title := strings.TrimSpace(i.Title); title != "" {
		return title
	}
	return DefaultIngredientTitle
}

// DisplayUnit returns the ingredient unit or grams when none is set.
func (i Ingredient) DisplayUnit() string {
	if unit := strings.TrimSpace(i.Unit); unit != "" {
		return unit
	}
	return DefaultUnit
}

// Ref points at an external catalog entity such as a condition.
type Ref struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Formula is a named, weighted combination of herb ingredients.
type Formula struct {
	ID              string       `json:"id" yaml:"id"`
	Title           string       `json:"title" yaml:"title"`
	Summary         string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Ingredients     []Ingredient `json:"ingredients" yaml:"ingredients"`
	TotalWeight     float64      `json:"total_weight" yaml:"total_weight"`
	TotalWeightUnit string       `json:"total_weight_unit,omitempty" yaml:"total_weight_unit,omitempty"`
	Conditions      []Ref        `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// ComputePercentage returns the share of the formula's total weight held by
// the ingredient. Explicit non-zero percentages are authoritative; otherwise
// the share is derived from the quantity when the total weight is usable.
func ComputePercentage(ingredient Ingredient, totalWeight float64) float64 {
	if ingredient.Percentage != 0 {
		return ingredient.Percentage
	}
	if totalWeight > 0 {
		return ingredient.Quantity / totalWeight * 100
	}
	return 0
}

// FormatPercentage renders a percentage for display. Zero renders as an
// empty string so templates can omit the column.
func FormatPercentage(value float64) string {
	if value == 0 {
		return ""
	}
	formatted := fmt.Sprintf("%.1f", value)
	formatted = strings.TrimSuffix(formatted, ".0")
	return formatted + "%"
}

// FormatQuantity renders a quantity with its unit, trimming trailing zeros.
func FormatQuantity(quantity float64, unit string) string {
	formatted := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", quantity), "0"), ".")
	if formatted == "" || formatted == "-" {
		formatted = "0"
	}
	if strings.TrimSpace(unit) == "" {
		unit = DefaultUnit
	}
	return formatted + " " + unit
}
