package models

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Doc is the untyped shape every store read hands to a mapper.
type Doc = map[string]any

// AsTime coerces the timestamp shapes a document store may return into a UTC
// time. ok is false when v is absent or unrecognised.
func AsTime(v any) (t time.Time, ok bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return x.UTC(), !x.IsZero()
	case primitive.DateTime:
		return x.Time().UTC(), true
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC(), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	case int, int32, int64, float64:
		n := int64(AsFloat(x))
		// anything past year 2286 in seconds is really milliseconds
		if n > 1e10 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	return time.Time{}, false
}

// TimeOr returns the coerced timestamp or def.
func TimeOr(v any, def time.Time) time.Time {
	if t, ok := AsTime(v); ok {
		return t
	}
	return def
}

func AsString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case primitive.ObjectID:
		return x.Hex()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int32, int64:
		return strconv.FormatInt(int64(AsFloat(x)), 10)
	}
	return ""
}

func AsFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0
		}
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	}
	return 0
}

func AsInt(v any) int {
	return int(AsFloat(v))
}

// AsList accepts the list shapes stores return. Non-lists yield nil.
func AsList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case primitive.A:
		return []any(x)
	case []Doc:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	}
	return nil
}

// AsDoc accepts the map shapes stores return. Non-maps yield nil.
func AsDoc(v any) Doc {
	switch x := v.(type) {
	case map[string]any:
		return x
	case primitive.M:
		return Doc(x)
	case primitive.D:
		return Doc(x.Map())
	}
	return nil
}

// first returns the first present key, for fields the frontend has spelled
// more than one way.
func first(d Doc, keys ...string) any {
	for _, k := range keys {
		if v, ok := d[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
