// Package props holds the open key/value property maps carried by schema
// subfields and widgets, plus the deep merge used to layer defaults.
package props

import (
	"fmt"
	"strconv"
	"strings"
)

// Map is an open property map decoded from JSON or YAML.
type Map map[string]any

// DeepMerge returns a new map holding target overlaid with source. Keys whose
// values are objects on both sides merge recursively; any other source value
// (arrays included) replaces the target value wholesale. Neither input is
// mutated and every value in the result is a deep copy.
func DeepMerge(target, source Map) Map {
	out := Clone(target)
	if out == nil {
		out = make(Map, len(source))
	}
	for key, value := range source {
		srcObj, srcIsObj := asObject(value)
		dstObj, dstIsObj := asObject(out[key])
		if srcIsObj && dstIsObj {
			merged := DeepMerge(dstObj, srcObj)
			if _, plain := out[key].(map[string]any); plain {
				out[key] = map[string]any(merged)
			} else {
				out[key] = merged
			}
			continue
		}
		out[key] = cloneValue(value)
	}
	return out
}

// Clone deep copies the map. A nil map clones to nil.
func Clone(src Map) Map {
	if src == nil {
		return nil
	}
	out := make(Map, len(src))
	for key, value := range src {
		out[key] = cloneValue(value)
	}
	return out
}

// String returns the value under key rendered as a trimmed string.
func (m Map) String(key string) string {
	value, ok := m[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Bool interprets the value under key as a boolean. Strings such as "true" or
// "1" are accepted.
func (m Map) Bool(key string) bool {
	switch value := m[key].(type) {
	case bool:
		return value
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		return err == nil && parsed
	case float64:
		return value != 0
	case int:
		return value != 0
	default:
		return false
	}
}

// Object returns the nested object under key.
func (m Map) Object(key string) (Map, bool) {
	return asObject(m[key])
}

func asObject(value any) (Map, bool) {
	switch typed := value.(type) {
	case Map:
		return typed, typed != nil
	case map[string]any:
		return Map(typed), typed != nil
	default:
		return nil, false
	}
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case Map:
		return Clone(typed)
	case map[string]any:
		return map[string]any(Clone(Map(typed)))
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
