package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"herbarium/internal/cms"
	"herbarium/internal/contribution"
	"herbarium/internal/herbal"
)

// fakeContent stands in for the CMS client in handler tests.
type fakeContent struct {
	mu sync.Mutex

	formula       herbal.Formula
	formulaErr    error
	contributions []contribution.Contribution
	listErr       error
	entities      []cms.Entity
	entity        cms.Entity
	entityErr     error
	herbs         []cms.HerbOption

	createErr error
	created   []contribution.Payload
	authors   []contribution.Author
	queries   []cms.ListQuery
}

func (f *fakeContent) GetFormula(_ context.Context, id string) (herbal.Formula, error) {
	if f.formulaErr != nil {
		return herbal.Formula{}, f.formulaErr
	}
	formula := f.formula
	if formula.ID == "" {
		formula.ID = id
	}
	return formula, nil
}

func (f *fakeContent) ListContributions(_ context.Context, _ string) ([]contribution.Contribution, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return contribution.Approved(f.contributions), nil
}

func (f *fakeContent) GetEntity(_ context.Context, _ cms.Kind, _ string) (cms.Entity, error) {
	return f.entity, f.entityErr
}

func (f *fakeContent) ListEntities(_ context.Context, _ cms.Kind, query cms.ListQuery) ([]cms.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.entities, f.entityErr
}

func (f *fakeContent) SearchHerbs(_ context.Context, q string) ([]cms.HerbOption, error) {
	if q == "" {
		return []cms.HerbOption{}, nil
	}
	return f.herbs, nil
}

func (f *fakeContent) CreateContribution(_ context.Context, author contribution.Author, payload contribution.Payload) (contribution.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authors = append(f.authors, author)
	if f.createErr != nil {
		return contribution.Contribution{}, f.createErr
	}
	f.created = append(f.created, payload)
	return contribution.Contribution{ID: "remote-1", FormulaID: payload.FormulaID, Type: payload.ContributionType, Status: contribution.StatusPending}, nil
}

func withTestContent(t *testing.T, fake *fakeContent) {
	t.Helper()
	originalContent, originalSubmitter := content, submitter
	ConfigureContent(fake, fake)
	t.Cleanup(func() {
		content, submitter = originalContent, originalSubmitter
	})
}

func gingerFormula() herbal.Formula {
	return herbal.Formula{
		ID:          "f1",
		Title:       "Warming Digestive Tea",
		TotalWeight: 40,
		Ingredients: []herbal.Ingredient{
			{HerbID: "h1", Title: "Ginger", Quantity: 30, Unit: "g", Role: herbal.RoleChief},
			{HerbID: "h2", Title: "Licorice", Quantity: 10, Unit: "g", Role: herbal.RoleEnvoy},
		},
	}
}

func TestContentStatus(t *testing.T) {
	t.Parallel()

	if got := contentStatus(&cms.APIError{Status: http.StatusNotFound}); got != http.StatusNotFound {
		t.Fatalf("expected 404 for missing content, got %d", got)
	}
	if got := contentStatus(errors.New("dial tcp: refused")); got != http.StatusBadGateway {
		t.Fatalf("expected 502 for transport failure, got %d", got)
	}
}

func TestContentMessage(t *testing.T) {
	t.Parallel()

	if got := contentMessage(&cms.APIError{Status: http.StatusNotFound}, "formula"); got != "We couldn't find this formula." {
		t.Fatalf("unexpected not found message %q", got)
	}
	if got := contentMessage(errors.New("boom"), "herb"); got != "This herb is temporarily unavailable. Please try again shortly." {
		t.Fatalf("unexpected message %q", got)
	}
}
