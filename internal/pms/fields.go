package pms

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Field accessors used by adapter normalization. Raw provider records are
// nested maps (JSON or XML-converted); every accessor tolerates a missing or
// mistyped value and returns the documented default instead.

func StringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func IntField(raw map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}

func FloatField(raw map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func BoolField(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	}
	return false
}

func DecimalField(raw map[string]any, keys ...string) decimal.Decimal {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return decimal.NewFromFloat(v)
		case int:
			return decimal.NewFromInt(int64(v))
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d
			}
		case string:
			if d, err := decimal.NewFromString(v); err == nil {
				return d
			}
		}
	}
	return decimal.Zero
}

// DateField parses calendar dates; providers use Y-m-d, a few send full
// timestamps. Zero time means absent.
func DateField(raw map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		s, ok := raw[key].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			}
		}
	}
	return time.Time{}
}

// StringsField flattens a collection value into a string slice. Entries that
// are maps contribute their url/src/name value, so image objects and plain
// amenity lists normalize the same way. XML-converted payloads wrap single
// children in a bare map instead of a list; that shape is handled too.
func StringsField(raw map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s := itemString(item); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case map[string]any:
			if s := itemString(v); s != "" {
				return []string{s}
			}
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return []string{}
}

func itemString(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		return StringField(v, "url", "src", "href", "name", "caption", "#text")
	}
	return ""
}

// MapField returns a nested object, or nil when absent.
func MapField(raw map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if m, ok := raw[key].(map[string]any); ok {
			return m
		}
	}
	return nil
}

// ListField returns a list of nested records. A single record where a list
// was expected (the XML single-child case) is wrapped.
func ListField(raw map[string]any, keys ...string) []map[string]any {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case []any:
			out := make([]map[string]any, 0, len(v))
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					out = append(out, m)
				}
			}
			return out
		case map[string]any:
			return []map[string]any{v}
		}
	}
	return nil
}
