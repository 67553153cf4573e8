package cms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"herbarium/internal/contribution"
	"herbarium/internal/herbal"
)

func contributionsPath(formulaID string) string {
	return "/api/formulas/" + url.PathEscape(formulaID) + "/contributions"
}

// ListContributions returns the approved contributions of a formula. The
// response is never cached so that moderation shows up on the next request,
// and anything not approved is dropped even if the CMS returns it.
func (c *Client) ListContributions(ctx context.Context, formulaID string) ([]contribution.Contribution, error) {
	formulaID = strings.TrimSpace(formulaID)
	if formulaID == "" {
		return nil, errors.New("cms: formula id is required")
	}

	var body struct {
		Contributions []map[string]any `json:"contributions"`
	}
	if err := c.getJSON(ctx, contributionsPath(formulaID), nil, false, &body); err != nil {
		return nil, fmt.Errorf("list contributions for %s: %w", formulaID, err)
	}

	list := make([]contribution.Contribution, 0, len(body.Contributions))
	for _, raw := range body.Contributions {
		item := contributionFromMap(raw)
		if item.FormulaID == "" {
			item.FormulaID = formulaID
		}
		list = append(list, item)
	}
	return contribution.Approved(list), nil
}

// CreateContribution posts a built payload on behalf of author. It satisfies
// contribution.Endpoint.
func (c *Client) CreateContribution(ctx context.Context, author contribution.Author, payload contribution.Payload) (contribution.Contribution, error) {
	token, err := c.signer.Token(author)
	if err != nil {
		return contribution.Contribution{}, err
	}

	var body map[string]any
	if err := c.postJSON(ctx, contributionsPath(payload.FormulaID), token, payload, &body); err != nil {
		return contribution.Contribution{}, err
	}

	raw := body
	if nested, ok := body["contribution"].(map[string]any); ok {
		raw = nested
	}
	created := contributionFromMap(raw)
	if created.FormulaID == "" {
		created.FormulaID = payload.FormulaID
	}
	if created.Type == "" {
		created.Type = payload.ContributionType
	}
	// Whatever the CMS echoes, a fresh contribution starts out pending.
	created.Status = contribution.StatusPending
	if created.AuthorName == "" {
		created.AuthorName = author.Name
	}
	return created, nil
}

var _ contribution.Endpoint = (*Client)(nil)

func contributionFromMap(raw map[string]any) contribution.Contribution {
	entity := Normalize(raw)
	attrs := entity.Attributes

	item := contribution.Contribution{
		ID:           entity.ID,
		FormulaID:    firstText(attrs, "formula_id", "formulaId"),
		Status:       contribution.ParseStatus(firstText(attrs, "status")),
		ClinicalNote: firstText(attrs, "clinical_note", "clinicalNote"),
		Context:      firstText(attrs, "context"),
		AuthorName:   firstText(attrs, "author_name", "authorName"),
	}
	if kind, ok := contribution.ParseType(firstText(attrs, "contribution_type", "contributionType", "type")); ok {
		item.Type = kind
	}
	if item.AuthorName == "" {
		if author, ok := attrs["author"].(map[string]any); ok {
			item.AuthorName = firstText(author, "name", "display_name")
		}
	}
	if created := firstText(attrs, "created_at", "createdAt", "created"); created != "" {
		if parsed, err := time.Parse(time.RFC3339, created); err == nil {
			item.CreatedAt = parsed
		}
	}
	if mods, ok := attrs["modifications"].([]any); ok {
		for _, entry := range mods {
			if fields, ok := entry.(map[string]any); ok {
				item.Modifications = append(item.Modifications, modificationFromMap(fields))
			}
		}
	}
	return item
}

func modificationFromMap(fields map[string]any) contribution.Modification {
	action, _ := contribution.ParseAction(firstText(fields, "action"))
	return contribution.Modification{
		HerbID:    firstText(fields, "herb_id", "herbId"),
		HerbTitle: firstText(fields, "herb_title", "herbTitle"),
		Action:    action,
		Quantity:  herbal.ParseNumber(fields["quantity"]),
		Unit:      firstText(fields, "unit"),
		Role:      herbal.ParseRole(firstText(fields, "role")),
		Function:  firstText(fields, "function"),
		Rationale: firstText(fields, "rationale"),
	}
}
