package cms

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind names a catalog collection on the CMS.
type Kind string

const (
	KindHerbs         Kind = "herbs"
	KindFormulas      Kind = "formulas"
	KindModalities    Kind = "modalities"
	KindConditions    Kind = "conditions"
	KindPractitioners Kind = "practitioners"
	KindClinics       Kind = "clinics"
)

// Kinds lists every browsable catalog collection.
var Kinds = []Kind{KindHerbs, KindFormulas, KindModalities, KindConditions, KindPractitioners, KindClinics}

// ParseKind validates a collection name taken from a URL.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range Kinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// Label is the human readable collection name.
func (k Kind) Label() string {
	value := string(k)
	if value == "" {
		return ""
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

// Identifier references a resource by type and id.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Entity is the canonical shape of every CMS resource used by the views.
type Entity struct {
	ID            string
	Type          string
	Title         string
	Summary       string
	Body          string
	Attributes    map[string]any
	Relationships map[string][]Identifier
}

// Attr returns an attribute as trimmed text, or the empty string.
func (e Entity) Attr(key string) string {
	return textValue(e.Attributes[key])
}

// Related returns the identifiers of the first relationship present under
// any of the given names.
func (e Entity) Related(names ...string) []Identifier {
	for _, name := range names {
		for _, candidate := range []string{name, "field_" + name} {
			if ids, ok := e.Relationships[candidate]; ok {
				return ids
			}
		}
	}
	return nil
}

// Normalize converts either a raw JSON:API resource object (fields nested
// under "attributes" and "relationships") or an already flattened object into
// an Entity. It is the only place that knows about both shapes.
func Normalize(raw map[string]any) Entity {
	entity := Entity{
		Attributes:    map[string]any{},
		Relationships: map[string][]Identifier{},
	}
	if raw == nil {
		return entity
	}

	entity.ID = textValue(raw["id"])
	entity.Type = textValue(raw["type"])

	attrs, nested := raw["attributes"].(map[string]any)
	if nested {
		for key, value := range attrs {
			entity.Attributes[key] = value
		}
	} else {
		for key, value := range raw {
			switch key {
			case "id", "type", "relationships", "links", "meta":
				continue
			}
			entity.Attributes[key] = value
		}
	}
	entity.Attributes["id"] = entity.ID

	if rels, ok := raw["relationships"].(map[string]any); ok {
		for name, value := range rels {
			entity.Relationships[name] = relationshipIdentifiers(value)
		}
	}

	entity.Title = firstText(entity.Attributes, "title", "name", "field_title")
	entity.Summary = firstText(entity.Attributes, "summary", "description", "field_summary", "field_description")
	entity.Body = firstText(entity.Attributes, "body", "field_body")
	return entity
}

func relationshipIdentifiers(value any) []Identifier {
	rel, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	switch data := rel["data"].(type) {
	case map[string]any:
		return []Identifier{{Type: textValue(data["type"]), ID: textValue(data["id"])}}
	case []any:
		out := make([]Identifier, 0, len(data))
		for _, item := range data {
			if entry, ok := item.(map[string]any); ok {
				out = append(out, Identifier{Type: textValue(entry["type"]), ID: textValue(entry["id"])})
			}
		}
		return out
	default:
		return nil
	}
}

func firstText(attrs map[string]any, keys ...string) string {
	for _, key := range keys {
		if text := textValue(attrs[key]); text != "" {
			return text
		}
	}
	return ""
}

// textValue flattens strings, numbers and {"value": "..."} rich text fields.
func textValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case map[string]any:
		for _, key := range []string{"processed", "value"} {
			if inner, ok := v[key].(string); ok && strings.TrimSpace(inner) != "" {
				return strings.TrimSpace(inner)
			}
		}
		return ""
	case []any, bool:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// document is a JSON:API top-level document.
type document struct {
	Data     json.RawMessage  `json:"data"`
	Included []map[string]any `json:"included"`
}

// primary returns the primary data as a list of raw resources; a single
// resource is returned as a one-element list.
func (d document) primary() ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(d.Data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []map[string]any
		if err := json.Unmarshal(d.Data, &list); err != nil {
			return nil, fmt.Errorf("cms: decode resource list: %w", err)
		}
		return list, nil
	}
	var single map[string]any
	if err := json.Unmarshal(d.Data, &single); err != nil {
		return nil, fmt.Errorf("cms: decode resource: %w", err)
	}
	return []map[string]any{single}, nil
}

// includedIndex maps "type/id" to normalized included resources.
func (d document) includedIndex() map[string]Entity {
	index := make(map[string]Entity, len(d.Included))
	for _, raw := range d.Included {
		entity := Normalize(raw)
		index[entity.Type+"/"+entity.ID] = entity
	}
	return index
}
