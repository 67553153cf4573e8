package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"

	"herbarium/internal/contribution"
)

// ContributionReceipt remembers a contribution the user submitted that may
// not be visible yet because it is still waiting for moderation. Receipts are
// only ever shown to their author.
type ContributionReceipt struct {
	gorm.Model
	ReceiptID    string `gorm:"uniqueIndex;not null"`
	UserID       uint   `gorm:"index;not null"`
	FormulaID    string `gorm:"index;not null"`
	FormulaTitle string
	RemoteID     string
	Type         string `gorm:"type:varchar(32);not null"`
	Status       string `gorm:"type:varchar(16);not null;default:pending"`
	Summary      string `gorm:"type:text"`
	SubmittedAt  time.Time
}

// NewContributionReceipt records a successful submission for userID.
func NewContributionReceipt(userID uint, formulaTitle string, receipt contribution.Receipt, payload contribution.Payload) ContributionReceipt {
	return ContributionReceipt{
		ReceiptID:    receipt.ID,
		UserID:       userID,
		FormulaID:    receipt.FormulaID,
		FormulaTitle: formulaTitle,
		RemoteID:     receipt.RemoteID,
		Type:         string(receipt.Type),
		Status:       string(receipt.Status),
		Summary:      SummarizePayload(payload),
		SubmittedAt:  receipt.SubmittedAt,
	}
}

const summaryLimit = 140

// SummarizePayload produces the one-line description shown in the user's
// contribution list.
func SummarizePayload(payload contribution.Payload) string {
	if payload.ContributionType.IsClinicalNote() {
		runes := []rune(payload.ClinicalNote)
		if len(runes) > summaryLimit {
			return string(runes[:summaryLimit-1]) + "…"
		}
		return payload.ClinicalNote
	}

	switch count := len(payload.Modifications); count {
	case 0:
		return ""
	case 1:
		mod := payload.Modifications[0]
		return string(mod.Action) + " " + mod.HerbTitle
	default:
		first := payload.Modifications[0]
		return string(first.Action) + " " + first.HerbTitle + " and " + pluralChanges(count-1)
	}
}

func pluralChanges(n int) string {
	if n == 1 {
		return "1 more change"
	}
	return strconv.Itoa(n) + " more changes"
}
