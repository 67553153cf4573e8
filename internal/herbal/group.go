package herbal

// Group is one role bucket of a formula's ingredients.
type Group struct {
	Role        Role
	Label       string
	Ingredients []Ingredient
}

// Groups holds the five role buckets in display order.
type Groups []Group

// GroupByRole partitions ingredients into the chief, deputy, assistant,
// envoy and unassigned buckets. Input order is preserved within each bucket
// and every bucket is present even when empty.
func GroupByRole(ingredients []Ingredient) Groups {
	index := make(map[Role]int, len(DisplayOrder))
	groups := make(Groups, len(DisplayOrder))
	for i, role := range DisplayOrder {
		groups[i] = Group{Role: role, Label: BucketLabel(role)}
		index[role] = i
	}
	for _, ingredient := range ingredients {
		role := ParseRole(string(ingredient.Role))
		slot := index[role]
		groups[slot].Ingredients = append(groups[slot].Ingredients, ingredient)
	}
	return groups
}

// HasRoles reports whether any ingredient landed in one of the four role
// buckets. When false the caller renders a flat list instead of sections.
func (g Groups) HasRoles() bool {
	for _, group := range g {
		if group.Role != RoleUnassigned && len(group.Ingredients) > 0 {
			return true
		}
	}
	return false
}

// Bucket returns the group for a role.
func (g Groups) Bucket(role Role) Group {
	role = ParseRole(string(role))
	for _, group := range g {
		if group.Role == role {
			return group
		}
	}
	return Group{Role: role, Label: BucketLabel(role)}
}

// NonEmpty returns only the groups holding at least one ingredient.
func (g Groups) NonEmpty() Groups {
	out := make(Groups, 0, len(g))
	for _, group := range g {
		if len(group.Ingredients) > 0 {
			out = append(out, group)
		}
	}
	return out
}
