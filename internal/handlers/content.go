package handlers

import (
	"context"
	"errors"
	"net/http"

	"herbarium/internal/cms"
	"herbarium/internal/contribution"
	"herbarium/internal/herbal"
)

// ContentSource reads catalog content from the CMS. *cms.Client satisfies it.
type ContentSource interface {
	GetFormula(ctx context.Context, id string) (herbal.Formula, error)
	ListContributions(ctx context.Context, formulaID string) ([]contribution.Contribution, error)
	GetEntity(ctx context.Context, kind cms.Kind, id string) (cms.Entity, error)
	ListEntities(ctx context.Context, kind cms.Kind, query cms.ListQuery) ([]cms.Entity, error)
	SearchHerbs(ctx context.Context, q string) ([]cms.HerbOption, error)
}

var _ ContentSource = (*cms.Client)(nil)

// contentStatus maps a CMS read failure onto the status of our response.
func contentStatus(err error) int {
	if errors.Is(err, cms.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func contentMessage(err error, subject string) string {
	if errors.Is(err, cms.ErrNotFound) {
		return "We couldn't find this " + subject + "."
	}
	return "This " + subject + " is temporarily unavailable. Please try again shortly."
}
