package cms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultListLimit = 24
	maxListLimit     = 50
	herbSearchLimit  = 10
)

// ListQuery narrows a collection listing.
type ListQuery struct {
	Title string
	Limit int
}

func (q ListQuery) values() url.Values {
	values := url.Values{}
	if title := strings.TrimSpace(q.Title); title != "" {
		values.Set("filter[title][value]", title)
		values.Set("filter[title][operator]", "CONTAINS")
	}
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	values.Set("page[limit]", strconv.Itoa(limit))
	values.Set("sort", "title")
	return values
}

// GetEntity loads one catalog resource.
func (c *Client) GetEntity(ctx context.Context, kind Kind, id string) (Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entity{}, errors.New("cms: entity id is required")
	}

	var doc document
	if err := c.getJSON(ctx, resourcePath(kind, id), nil, true, &doc); err != nil {
		return Entity{}, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	resources, err := doc.primary()
	if err != nil {
		return Entity{}, err
	}
	if len(resources) == 0 {
		return Entity{}, fmt.Errorf("get %s %s: %w", kind, id, ErrNotFound)
	}
	return Normalize(resources[0]), nil
}

// ListEntities loads a page of a catalog collection.
func (c *Client) ListEntities(ctx context.Context, kind Kind, query ListQuery) ([]Entity, error) {
	var doc document
	if err := c.getJSON(ctx, resourcePath(kind, ""), query.values(), true, &doc); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	resources, err := doc.primary()
	if err != nil {
		return nil, err
	}
	entities := make([]Entity, 0, len(resources))
	for _, raw := range resources {
		entities = append(entities, Normalize(raw))
	}
	return entities, nil
}

// HerbOption is one typeahead suggestion. Modifications reference herbs by
// the ID returned here.
type HerbOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SearchHerbs returns herbs whose title contains q. Blank queries return no
// suggestions without contacting the CMS.
func (c *Client) SearchHerbs(ctx context.Context, q string) ([]HerbOption, error) {
	if strings.TrimSpace(q) == "" {
		return []HerbOption{}, nil
	}
	entities, err := c.ListEntities(ctx, KindHerbs, ListQuery{Title: q, Limit: herbSearchLimit})
	if err != nil {
		return nil, err
	}
	options := make([]HerbOption, 0, len(entities))
	for _, entity := range entities {
		if entity.ID == "" {
			continue
		}
		title := entity.Title
		if title == "" {
			title = "Herb"
		}
		options = append(options, HerbOption{ID: entity.ID, Title: title})
	}
	return options, nil
}
