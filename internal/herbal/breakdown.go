package herbal

import (
	"fmt"
	"math"
)

// percentageTolerance absorbs rounding in hand-entered percentages.
const percentageTolerance = 1.0

// Breakdown is the display-ready view of a formula: normalized ingredients,
// role groups and any consistency warnings.
type Breakdown struct {
	Formula  Formula
	Groups   Groups
	Grouped  bool
	Warnings []string
}

// NewBreakdown normalizes the formula's ingredients and groups them by role.
// Inconsistent data never fails; it is reported through Warnings.
func NewBreakdown(formula Formula) Breakdown {
	warnings := []string{}
	ingredients := make([]Ingredient, 0, len(formula.Ingredients))
	for _, ingredient := range formula.Ingredients {
		if ingredient.Quantity < 0 {
			warnings = append(warnings, fmt.Sprintf("%s lists a negative quantity; it is shown as zero.", ingredient.DisplayTitle()))
			ingredient.Quantity = 0
		}
		if ingredient.Percentage < 0 || ingredient.Percentage > 100 {
			warnings = append(warnings, fmt.Sprintf("%s lists a percentage outside 0-100%%.", ingredient.DisplayTitle()))
		}
		ingredient.Role = ParseRole(string(ingredient.Role))
		ingredients = append(ingredients, ingredient)
	}
	if formula.TotalWeight < 0 {
		warnings = append(warnings, "The formula lists a negative total weight; derived percentages are omitted.")
	}
	formula.Ingredients = ingredients

	if sum, ok := PercentageSum(formula); ok && math.Abs(sum-100) > percentageTolerance {
		warnings = append(warnings, fmt.Sprintf("Ingredient percentages add up to %s rather than 100%%.", FormatPercentage(sum)))
	}

	groups := GroupByRole(ingredients)
	return Breakdown{
		Formula:  formula,
		Groups:   groups,
		Grouped:  groups.HasRoles(),
		Warnings: warnings,
	}
}

// Percentage returns the display percentage of an ingredient in this formula.
func (b Breakdown) Percentage(ingredient Ingredient) float64 {
	return ComputePercentage(ingredient, b.Formula.TotalWeight)
}

// PercentageSum totals the per-ingredient percentages. The boolean is false
// when no ingredient has a percentage, in which case there is nothing to check.
func PercentageSum(formula Formula) (float64, bool) {
	var sum float64
	seen := false
	for _, ingredient := range formula.Ingredients {
		pct := ComputePercentage(ingredient, formula.TotalWeight)
		if pct == 0 {
			continue
		}
		seen = true
		sum += pct
	}
	return sum, seen
}
