package contribution

import (
	"strings"
	"time"

	"herbarium/internal/herbal"
)

// Type distinguishes free-text notes from structured herb changes.
type Type string

const (
	TypeClinicalNote Type = "clinical_note"
	TypeModification Type = "modification"
	// TypeAddition is accepted from the CMS and behaves like TypeModification.
	TypeAddition Type = "addition"
)

// ParseType normalizes a contribution type. The boolean is false for unknown values.
func ParseType(value string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeClinicalNote:
		return TypeClinicalNote, true
	case TypeModification:
		return TypeModification, true
	case TypeAddition:
		return TypeAddition, true
	default:
		return "", false
	}
}

// IsClinicalNote reports whether the contribution carries a note rather than
// modifications.
func (t Type) IsClinicalNote() bool {
	return t == TypeClinicalNote
}

// Status is the moderation state of a contribution. Only StatusPending is
// ever written by this service; the CMS moderators own the other transitions.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus maps a CMS status onto a known value; unknown values are pending.
func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// Action is the kind of change a modification proposes.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionModify Action = "modify"
)

// ParseAction normalizes an action. The boolean is false for unknown values.
func ParseAction(value string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionAdd:
		return ActionAdd, true
	case ActionRemove:
		return ActionRemove, true
	case ActionModify:
		return ActionModify, true
	default:
		return "", false
	}
}

// Modification proposes adding, removing or changing one herb of a formula.
type Modification struct {
	HerbID    string      `json:"herb_id" yaml:"herb_id"`
	HerbTitle string      `json:"herb_title" yaml:"herb_title"`
	Action    Action      `json:"action" yaml:"action"`
	Quantity  float64     `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit      string      `json:"unit,omitempty" yaml:"unit,omitempty"`
	Role      herbal.Role `json:"role,omitempty" yaml:"role,omitempty"`
	Function  string      `json:"function,omitempty" yaml:"function,omitempty"`
	Rationale string      `json:"rationale" yaml:"rationale"`
}

// Author identifies the account that wrote a contribution.
type Author struct {
	ID   string
	Name string
}

// Contribution is a community submission attached to a formula.
type Contribution struct {
	ID            string
	FormulaID     string
	Type          Type
	Status        Status
	ClinicalNote  string
	Context       string
	Modifications []Modification
	AuthorName    string
	CreatedAt     time.Time
}

// Visible reports whether the contribution may be shown publicly.
func (c Contribution) Visible() bool {
	return c.Status == StatusApproved
}

// Approved filters a list down to approved contributions, preserving order.
func Approved(list []Contribution) []Contribution {
	out := make([]Contribution, 0, len(list))
	for _, item := range list {
		if item.Visible() {
			out = append(out, item)
		}
	}
	return out
}
