package herbal

import "strings"

// Role is the TCM formulation role of an herb within a formula.
type Role string

const (
	RoleChief      Role = "chief"
	RoleDeputy     Role = "deputy"
	RoleAssistant  Role = "assistant"
	RoleEnvoy      Role = "envoy"
	RoleUnassigned Role = ""
)

// DisplayOrder lists the role buckets in the order they are rendered.
var DisplayOrder = []Role{RoleChief, RoleDeputy, RoleAssistant, RoleEnvoy, RoleUnassigned}

// ParseRole maps free text onto a known role. Unknown values are unassigned.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleChief:
		return RoleChief
	case RoleDeputy:
		return RoleDeputy
	case RoleAssistant:
		return RoleAssistant
	case RoleEnvoy:
		return RoleEnvoy
	default:
		return RoleUnassigned
	}
}

// Assigned reports whether the role is one of the four TCM roles.
func (r Role) Assigned() bool {
	return ParseRole(string(r)) != RoleUnassigned
}

// Badge is the presentation triple for a role.
type Badge struct {
	Icon  string
	Label string
	Color string
}

var roleBadges = map[Role]Badge{
	RoleChief:     {Icon: "crown", Label: "Chief", Color: "amber"},
	RoleDeputy:    {Icon: "shield", Label: "Deputy", Color: "emerald"},
	RoleAssistant: {Icon: "hand", Label: "Assistant", Color: "sky"},
	RoleEnvoy:     {Icon: "send", Label: "Envoy", Color: "violet"},
}

// RoleBadge returns the badge for a role. The boolean is false for unassigned
// or unknown roles, which render no badge.
func RoleBadge(r Role) (Badge, bool) {
	badge, ok := roleBadges[ParseRole(string(r))]
	return badge, ok
}

// BucketLabel is the section heading used for a role bucket.
func BucketLabel(r Role) string {
	if badge, ok := RoleBadge(r); ok {
		return badge.Label
	}
	return "Other Herbs"
}
