package pages

import (
	"strings"
	"time"

	"herbarium/internal/contribution"
)

// DefaultDash returns an em dash when the provided value is empty or whitespace.
func DefaultDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

// formatDate renders a timestamp as day month year, or a dash when unset.
func formatDate(value time.Time) string {
	if value.IsZero() {
		return "—"
	}
	return value.Format("02 Jan 2006")
}

// ContributionTypeLabel is the heading used for a contribution type.
func ContributionTypeLabel(kind string) string {
	switch contribution.Type(kind) {
	case contribution.TypeClinicalNote:
		return "Clinical note"
	case contribution.TypeModification:
		return "Modification"
	case contribution.TypeAddition:
		return "Addition"
	default:
		return "Contribution"
	}
}

// ActionLabel is the verb shown for a modification action.
func ActionLabel(action contribution.Action) string {
	switch action {
	case contribution.ActionAdd:
		return "Add"
	case contribution.ActionRemove:
		return "Remove"
	case contribution.ActionModify:
		return "Modify"
	default:
		return DefaultDash(string(action))
	}
}
