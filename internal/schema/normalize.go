package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"refdata/internal/logger"
	"refdata/internal/validator"
)

// dateLayouts are tried in order when parsing date-like strings.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-Jan-2006",
	"02/01/2006",
}

// ParseDate parses the date formats accepted in requests and bulk files.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// ParseBool coerces loosely typed booleans.
func ParseBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case float64:
		if v == 1 {
			return true, true
		}
		if v == 0 {
			return false, true
		}
	case int:
		if v == 1 || v == 0 {
			return v == 1, true
		}
	case int64:
		if v == 1 || v == 0 {
			return v == 1, true
		}
	case json.Number:
		return ParseBool(v.String())
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y":
			return true, true
		case "false", "0", "no", "n":
			return false, true
		}
	}
	return false, false
}

func (s *Schema) normalize(ctx context.Context, f Field, raw any) (any, string) {
	switch f.Kind {
	case KindString, KindRef:
		str, ok := asString(raw)
		if !ok {
			return nil, "must be a string"
		}
		if f.Upper {
			str = strings.ToUpper(str)
		}
		if f.Kind == KindString && f.Rules != "" {
			if err := validator.Var(str, f.Rules); err != nil {
				return nil, validator.Message(err)
			}
		}
		return str, ""

	case KindBool:
		b, ok := ParseBool(raw)
		if !ok {
			return nil, "must be a boolean"
		}
		return b, ""

	case KindInt:
		n, ok := asInt(raw)
		if !ok {
			return nil, "must be an integer"
		}
		if f.Rules != "" {
			if err := validator.Var(n, f.Rules); err != nil {
				return nil, validator.Message(err)
			}
		}
		return n, ""

	case KindDecimal:
		d, ok := asDecimal(raw)
		if !ok {
			return nil, "must be a decimal number"
		}
		if f.Positive && !d.IsPositive() {
			return nil, "must be greater than 0"
		}
		return d, ""

	case KindDate:
		if t, ok := raw.(time.Time); ok {
			return t.UTC(), ""
		}
		str, ok := raw.(string)
		if !ok {
			return nil, "must be a date"
		}
		t, err := ParseDate(str)
		if err != nil {
			return nil, "must be a valid date"
		}
		return t, ""

	case KindStrings:
		items, ok := asArray(raw)
		if !ok {
			return nil, "must be an array"
		}
		return s.normalizeStrings(f, items), ""

	case KindObjects:
		items, ok := asArray(raw)
		if !ok {
			return nil, "must be an array"
		}
		return s.normalizeObjects(ctx, f, items), ""
	}
	return nil, "unsupported field kind"
}

func (s *Schema) normalizeStrings(f Field, items []any) []any {
	out := make([]any, 0, len(items))
	for i, item := range items {
		str, ok := item.(string)
		str = strings.TrimSpace(str)
		if !ok || str == "" {
			s.dropped(f, i, "must be a non-empty string")
			continue
		}
		if f.Rules != "" {
			if err := validator.Var(str, f.Rules); err != nil {
				s.dropped(f, i, validator.Message(err))
				continue
			}
		}
		out = append(out, str)
	}
	return out
}

func (s *Schema) normalizeObjects(ctx context.Context, f Field, items []any) []any {
	out := make([]any, 0, len(items))
	seen := map[string]bool{}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			s.dropped(f, i, "must be an object")
			continue
		}
		v, err := f.Elem.Validate(ctx, m, ModeCreate, nil)
		if err != nil {
			s.dropped(f, i, err.Error())
			continue
		}
		if f.UniqueBy != "" {
			key := fmt.Sprint(v[f.UniqueBy])
			if seen[key] {
				s.dropped(f, i, fmt.Sprintf("duplicate %s '%s'", f.UniqueBy, key))
				continue
			}
			seen[key] = true
		}
		out = append(out, map[string]any(v))
	}
	return out
}

func (s *Schema) dropped(f Field, index int, reason string) {
	logger.Get().Warnw("dropped malformed array entry",
		"entity", s.Entity,
		"field", f.Name,
		"index", index,
		"reason", reason,
	)
}

func asString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	}
	return "", false
}

func asInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

// asArray accepts a decoded JSON array or JSON array text, as found in bulk files.
func asArray(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case string:
		var items []any
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &items); err != nil {
			return nil, false
		}
		return items, true
	}
	return nil, false
}
