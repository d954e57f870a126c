// Package schema declares per-entity field rules and turns loosely typed
// request input into normalized values ready to be persisted.
//
// A field absent from the input is omitted from the output so partial updates
// only touch what was supplied. A field given as null or an empty string is a
// request to clear it and is normalized to the zero value of its kind.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	apperrors "refdata/internal/errors"
)

// Kind is the primitive type of a field after normalization.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindDecimal
	KindDate
	KindRef
	KindObjects
	KindStrings
)

// Mode selects how presence rules are enforced.
type Mode int

const (
	// ModeCreate requires every required field to be present.
	ModeCreate Mode = iota
	// ModeUpdate only rejects attempts to clear a required field.
	ModeUpdate
)

// Field declares one input field.
type Field struct {
	Name     string
	Column   string
	Kind     Kind
	Required bool
	// Rules is a go-playground validator tag applied to the normalized scalar,
	// or to each element of a KindStrings array.
	Rules string
	// Ref is the table a KindRef field points at.
	Ref string
	// Elem is the element shape of a KindObjects array.
	Elem *Schema
	// UniqueBy names an element field whose value must not repeat within a KindObjects array.
	UniqueBy string
	// Positive requires a KindDecimal value greater than zero.
	Positive bool
	// Upper upper-cases a KindString value before its rules run.
	Upper bool
}

// Values holds normalized input keyed by field name.
type Values map[string]any

// ReferenceChecker resolves whether a referenced record exists and is live.
type ReferenceChecker interface {
	Exists(ctx context.Context, table, id string) (bool, error)
}

// Schema is the declarative shape of an entity or of an array element.
type Schema struct {
	Entity string
	Fields []Field
	// Check is an optional cross-field rule returning the offending field and reason.
	Check func(v Values) (field, reason string)
}

// New builds a schema for the given entity. Fields without an explicit
// column are stored in the snake_case column of their name.
func New(entity string, fields ...Field) *Schema {
	for i := range fields {
		if fields[i].Column == "" {
			fields[i].Column = snakeCase(fields[i].Name)
		}
	}
	return &Schema{Entity: entity, Fields: fields}
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Merge concatenates the fields of several schemas under one entity name.
func Merge(entity string, parts ...*Schema) *Schema {
	merged := &Schema{Entity: entity}
	for _, p := range parts {
		merged.Fields = append(merged.Fields, p.Fields...)
	}
	return merged
}

// Field looks a field up by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Column returns the column of the named field, or "" if unknown.
func (s *Schema) Column(name string) string {
	f, ok := s.Field(name)
	if !ok {
		return ""
	}
	return f.Column
}

// Covers reports whether input supplies at least one field of the schema.
func (s *Schema) Covers(input map[string]any) bool {
	for _, f := range s.Fields {
		if _, ok := input[f.Name]; ok {
			return true
		}
	}
	return false
}

// Header returns the field names in declaration order.
func (s *Schema) Header() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Validate normalizes input and checks every rule. Shape failures are
// reported as a validation error before any reference is resolved; unknown
// or dead references are reported as a reference error.
func (s *Schema) Validate(ctx context.Context, input map[string]any, mode Mode, refs ReferenceChecker) (Values, error) {
	out := Values{}
	problems := map[string]string{}

	for _, f := range s.Fields {
		raw, present := input[f.Name]
		if !present {
			if mode == ModeCreate && f.Required {
				problems[f.Name] = "is required"
			}
			continue
		}
		if isBlank(raw) {
			if f.Required {
				problems[f.Name] = "is required"
				continue
			}
			out[f.Name] = f.zero()
			continue
		}
		v, reason := s.normalize(ctx, f, raw)
		if reason != "" {
			problems[f.Name] = reason
			continue
		}
		out[f.Name] = v
	}

	if len(problems) == 0 && s.Check != nil {
		if field, reason := s.Check(out); reason != "" {
			problems[field] = reason
		}
	}
	if len(problems) > 0 {
		return nil, apperrors.FieldError(apperrors.ErrValidation, problems)
	}

	if err := s.checkRefs(ctx, out, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Schema) checkRefs(ctx context.Context, v Values, refs ReferenceChecker) error {
	problems := map[string]string{}
	for _, f := range s.Fields {
		if f.Kind != KindRef {
			continue
		}
		id, _ := v[f.Name].(string)
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			problems[f.Name] = fmt.Sprintf("'%s' is not a valid id for %s", id, f.Ref)
			continue
		}
		if refs == nil {
			continue
		}
		ok, err := refs.Exists(ctx, f.Ref, id)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !ok {
			problems[f.Name] = fmt.Sprintf("'%s' does not exist in %s", id, f.Ref)
		}
	}
	if len(problems) > 0 {
		return apperrors.FieldError(apperrors.ErrReference, problems)
	}
	return nil
}

// Columns maps normalized values to column names. Array values are encoded as JSON.
func (s *Schema) Columns(v Values) map[string]any {
	cols := make(map[string]any, len(v))
	for _, f := range s.Fields {
		val, ok := v[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case KindObjects, KindStrings:
			b, err := json.Marshal(val)
			if err != nil {
				b = []byte("[]")
			}
			cols[f.Column] = datatypes.JSON(b)
		default:
			cols[f.Column] = val
		}
	}
	return cols
}

func (f Field) zero() any {
	switch f.Kind {
	case KindBool:
		return false
	case KindInt:
		return int64(0)
	case KindDecimal, KindDate:
		return nil
	case KindObjects, KindStrings:
		return []any{}
	default:
		return ""
	}
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
