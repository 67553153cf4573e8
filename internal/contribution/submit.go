package contribution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "herbarium/internal/log"
)

// ErrAuthenticationRequired is returned when a submission has no author.
// The endpoint is never contacted in that case.
var ErrAuthenticationRequired = errors.New("contribution: authentication required")

// Endpoint persists contributions on the CMS.
type Endpoint interface {
	CreateContribution(ctx context.Context, author Author, payload Payload) (Contribution, error)
}

// Receipt records a submission that is waiting for moderation.
type Receipt struct {
	ID          string
	RemoteID    string
	FormulaID   string
	Type        Type
	Status      Status
	SubmittedAt time.Time
}

// Submitter hands validated payloads to the CMS endpoint.
type Submitter struct {
	endpoint Endpoint
	now      func() time.Time
}

// NewSubmitter builds a Submitter backed by the given endpoint.
func NewSubmitter(endpoint Endpoint) *Submitter {
	return &Submitter{
		endpoint: endpoint,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Submit sends the payload on behalf of the author. A missing author short
// circuits with ErrAuthenticationRequired. Endpoint failures are returned
// as-is and never retried.
func (s *Submitter) Submit(ctx context.Context, author *Author, payload Payload) (Receipt, error) {
	if author == nil || strings.TrimSpace(author.ID) == "" {
		applog.Debug(ctx, "contribution submission without author", "formulaID", payload.FormulaID)
		return Receipt{}, ErrAuthenticationRequired
	}
	if s == nil || s.endpoint == nil {
		return Receipt{}, errors.New("contribution: endpoint not configured")
	}
	if payload.ContributionType == "" || strings.TrimSpace(payload.FormulaID) == "" {
		return Receipt{}, errors.New("contribution: payload was not built")
	}

	applog.Debug(ctx, "submitting contribution", "formulaID", payload.FormulaID, "type", payload.ContributionType, "authorID", author.ID)

	created, err := s.endpoint.CreateContribution(ctx, *author, payload)
	if err != nil {
		applog.Error(ctx, "contribution endpoint rejected submission", "formulaID", payload.FormulaID, "error", err)
		return Receipt{}, fmt.Errorf("submit contribution: %w", err)
	}

	receipt := Receipt{
		ID:          uuid.NewString(),
		RemoteID:    created.ID,
		FormulaID:   payload.FormulaID,
		Type:        payload.ContributionType,
		Status:      StatusPending,
		SubmittedAt: s.now(),
	}
	applog.Info(ctx, "contribution submitted", "formulaID", receipt.FormulaID, "remoteID", receipt.RemoteID)
	return receipt, nil
}

// userMessenger is implemented by endpoint errors that carry text meant for
// the person who submitted the form.
type userMessenger interface {
	UserMessage() string
}

// FailureMessage returns the text to show for a failed submission: the
// endpoint's own message when it supplied one, otherwise a generic notice.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrAuthenticationRequired) {
		return "Please sign in to contribute."
	}
	var messenger userMessenger
	if errors.As(err, &messenger) {
		if message := strings.TrimSpace(messenger.UserMessage()); message != "" {
			return message
		}
	}
	return "We couldn't submit your contribution. Please try again."
}
