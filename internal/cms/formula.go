package cms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"herbarium/internal/herbal"
)

const formulaInclude = "field_ingredients,field_ingredients.field_herb,field_conditions"

// GetFormula loads a formula with its ingredient lines and linked conditions.
// Ingredients may arrive inline on the formula or as included resources.
func (c *Client) GetFormula(ctx context.Context, id string) (herbal.Formula, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return herbal.Formula{}, errors.New("cms: formula id is required")
	}

	var doc document
	query := url.Values{"include": {formulaInclude}}
	if err := c.getJSON(ctx, resourcePath(KindFormulas, id), query, true, &doc); err != nil {
		return herbal.Formula{}, fmt.Errorf("get formula %s: %w", id, err)
	}

	resources, err := doc.primary()
	if err != nil {
		return herbal.Formula{}, err
	}
	if len(resources) == 0 {
		return herbal.Formula{}, fmt.Errorf("get formula %s: %w", id, ErrNotFound)
	}

	return formulaFromDocument(Normalize(resources[0]), doc.includedIndex()), nil
}

func formulaFromDocument(entity Entity, included map[string]Entity) herbal.Formula {
	formula := herbal.FormulaFromAttributes(entity.Attributes)
	formula.ID = entity.ID
	if formula.Title == "" {
		formula.Title = entity.Title
	}
	if formula.Summary == "" {
		formula.Summary = entity.Summary
	}

	if len(formula.Ingredients) == 0 {
		for _, ref := range entity.Related("ingredients", "herb_ingredients") {
			resource, ok := included[ref.Type+"/"+ref.ID]
			if !ok {
				continue
			}
			formula.Ingredients = append(formula.Ingredients, ingredientFromResource(resource, included))
		}
	}

	if len(formula.Conditions) == 0 {
		for _, ref := range entity.Related("conditions") {
			condition := herbal.Ref{ID: ref.ID}
			if resource, ok := included[ref.Type+"/"+ref.ID]; ok {
				condition.Title = resource.Title
			}
			formula.Conditions = append(formula.Conditions, condition)
		}
	}
	return formula
}

// ingredientFromResource reads an included ingredient resource. Its own id
// identifies the ingredient line, not the herb, so the herb comes from the
// "herb" relationship instead.
func ingredientFromResource(resource Entity, included map[string]Entity) herbal.Ingredient {
	attrs := make(map[string]any, len(resource.Attributes))
	for key, value := range resource.Attributes {
		if key == "id" {
			continue
		}
		attrs[key] = value
	}
	ingredient := herbal.IngredientFromAttributes(attrs)

	if refs := resource.Related("herb"); len(refs) > 0 {
		ingredient.HerbID = refs[0].ID
		if herb, ok := included[refs[0].Type+"/"+refs[0].ID]; ok && ingredient.Title == "" {
			ingredient.Title = herb.Title
		}
	}
	return ingredient
}

func resourcePath(kind Kind, id string) string {
	path := "/jsonapi/" + url.PathEscape(string(kind))
	if id != "" {
		path += "/" + url.PathEscape(id)
	}
	return path
}
