package components

import "strings"

// FlashKind selects the styling of a flash banner.
type FlashKind string

const (
	FlashInfo    FlashKind = "info"
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    FlashKind
	Message string
}

// Empty reports whether there is nothing to show.
func (f Flash) Empty() bool {
	return strings.TrimSpace(f.Message) == ""
}

func (f Flash) kind() FlashKind {
	if f.Kind == "" {
		return FlashInfo
	}
	return f.Kind
}

func flashRole(kind FlashKind) string {
	if kind == FlashError {
		return "alert"
	}
	return "status"
}
