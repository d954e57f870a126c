package services

import (
	"fmt"
	"strings"

	"refdata/internal/pagination"
	"refdata/internal/schema"
)

// Entity is the static metadata driving the generic audited CRUD engine for
// one config entity type.
type Entity struct {
	// Name identifies the entity in logs, metrics and messages.
	Name string
	// Slug is the route segment under /api/v1.
	Slug string
	// Permission is the prefix of the {PREFIX}_{CREATE|EDIT|READ|DELETE} permission strings.
	Permission string
	Table      string
	Schema     *schema.Schema
	// SequenceField is the JSON name of the sequencer-assigned numeric id.
	SequenceField string
	NaturalKey    []string
	DisplayKey    []string
	SearchFields  []string
	PerPage       int
	Preloads      []string
}

// PermissionFor returns the permission string required for an action.
func (e *Entity) PermissionFor(action string) string {
	return e.Permission + "_" + strings.ToUpper(action)
}

// searchColumn resolves an allow-listed search key to its column.
func (e *Entity) searchColumn(key string) (string, bool) {
	if key == "" && len(e.SearchFields) > 0 {
		key = e.SearchFields[0]
	}
	for _, allowed := range e.SearchFields {
		if allowed == key {
			return e.Schema.Column(key), true
		}
	}
	return "", false
}

// conflictMessage renders the display key of a natural-key collision.
func (e *Entity) conflictMessage(key map[string]any) string {
	parts := make([]string, 0, len(e.DisplayKey))
	for _, name := range e.DisplayKey {
		parts = append(parts, fmt.Sprintf("%s '%v' is already present", name, key[name]))
	}
	return strings.Join(parts, ", ")
}

// ListQuery holds the filter and page of a list request.
type ListQuery struct {
	pagination.PageRequest
	Search         string `form:"search"`
	SearchKey      string `form:"searchKey"`
	IncludeDeleted bool   `form:"includeDeleted"`
}
