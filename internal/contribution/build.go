package contribution

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"herbarium/internal/herbal"
)

const (
	MinClinicalNoteLength = 20
	MaxClinicalNoteLength = 2000
	MaxModifications      = 50
)

// Fields carries the user-authored input for a contribution.
type Fields struct {
	FormulaID     string         `json:"formula_id" yaml:"formula_id"`
	ClinicalNote  string         `json:"clinical_note" yaml:"clinical_note"`
	Context       string         `json:"context" yaml:"context"`
	Modifications []Modification `json:"modifications" yaml:"modifications"`
}

// Payload is the normalized body sent to the CMS contribution endpoint.
type Payload struct {
	ContributionType Type           `json:"contribution_type"`
	FormulaID        string         `json:"formula_id"`
	ClinicalNote     string         `json:"clinical_note,omitempty"`
	Context          string         `json:"context,omitempty"`
	Modifications    []Modification `json:"modifications,omitempty"`
}

// Errors maps form field keys to human readable messages.
type Errors map[string]string

// Error implements the error interface.
func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e[key]))
	}
	return "contribution invalid: " + strings.Join(parts, "; ")
}

// Field returns the message for a key, or the empty string.
func (e Errors) Field(key string) string {
	if e == nil {
		return ""
	}
	return e[key]
}

// ModificationField builds the error key for a field of the i-th modification.
func ModificationField(index int, field string) string {
	return fmt.Sprintf("modifications.%d.%s", index, field)
}

// Build validates the fields for the given mode and returns the payload ready
// for submission. Validation failures are returned as Errors and nothing is
// partially built.
func Build(mode string, fields Fields) (Payload, error) {
	errs := Errors{}

	kind, ok := ParseType(mode)
	if !ok {
		errs["contribution_type"] = "Choose whether you are sharing a clinical note or proposing modifications."
		return Payload{}, errs
	}

	formulaID := strings.TrimSpace(fields.FormulaID)
	if formulaID == "" {
		errs["formula_id"] = "A formula is required."
	}

	payload := Payload{
		ContributionType: kind,
		FormulaID:        formulaID,
		Context:          strings.TrimSpace(fields.Context),
	}

	if kind.IsClinicalNote() {
		note := strings.TrimSpace(fields.ClinicalNote)
		if message := validateClinicalNote(note); message != "" {
			errs["clinical_note"] = message
		}
		payload.ClinicalNote = note
	} else {
		payload.Modifications = buildModifications(fields.Modifications, errs)
	}

	if len(errs) > 0 {
		return Payload{}, errs
	}
	return payload, nil
}

func validateClinicalNote(note string) string {
	length := utf8.RuneCountInString(note)
	switch {
	case length == 0:
		return "Clinical note is required."
	case length < MinClinicalNoteLength:
		return fmt.Sprintf("Clinical note must be at least %d characters.", MinClinicalNoteLength)
	case length > MaxClinicalNoteLength:
		return fmt.Sprintf("Clinical note must be at most %d characters.", MaxClinicalNoteLength)
	default:
		return ""
	}
}

func buildModifications(input []Modification, errs Errors) []Modification {
	if len(input) == 0 {
		errs["modifications"] = "Add at least one herb modification."
		return nil
	}
	if len(input) > MaxModifications {
		errs["modifications"] = fmt.Sprintf("Too many modification rows. At most %d are accepted.", MaxModifications)
		return nil
	}

	out := make([]Modification, 0, len(input))
	for i, raw := range input {
		mod := Modification{
			HerbID:    strings.TrimSpace(raw.HerbID),
			HerbTitle: strings.TrimSpace(raw.HerbTitle),
			Rationale: strings.TrimSpace(raw.Rationale),
		}

		action, ok := ParseAction(string(raw.Action))
		switch {
		case strings.TrimSpace(string(raw.Action)) == "":
			errs[ModificationField(i, "action")] = "Choose an action."
		case !ok:
			errs[ModificationField(i, "action")] = "Action must be add, remove or modify."
		}
		mod.Action = action

		if mod.HerbTitle == "" {
			errs[ModificationField(i, "herb_title")] = "Herb name is required."
		}
		if mod.HerbID == "" {
			errs[ModificationField(i, "herb_id")] = "Select the herb from the catalog."
		}
		if mod.Rationale == "" {
			errs[ModificationField(i, "rationale")] = "Explain the reason for this change."
		}

		if action != ActionRemove {
			if raw.Quantity < 0 {
				errs[ModificationField(i, "quantity")] = "Quantity cannot be negative."
			}
			mod.Quantity = raw.Quantity
			mod.Unit = strings.TrimSpace(raw.Unit)
			if mod.Unit == "" && mod.Quantity > 0 {
				mod.Unit = herbal.DefaultUnit
			}
			mod.Role = herbal.ParseRole(string(raw.Role))
			mod.Function = strings.TrimSpace(raw.Function)
		}

		out = append(out, mod)
	}
	return out
}
