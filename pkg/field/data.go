package field

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formtree/pkg/widgets"
)

// referenceValue recognises a reference selection payload: an object with
// both id and name.
func referenceValue(data map[string]any) (id, name string, ok bool) {
	rawID, hasID := data["id"]
	rawName, hasName := data["name"]
	if !hasID || !hasName || rawID == nil {
		return "", "", false
	}
	return stringify(rawID), stringify(rawName), true
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return fmt.Sprint(typed)
	}
}

// isBlank reports whether extracted data carries no user input.
func isBlank(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case map[string]any:
		for _, v := range typed {
			if !isBlank(v) {
				return false
			}
		}
		return true
	case []any:
		for _, v := range typed {
			if !isBlank(v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// uncheckedBox reports a checkbox row left unchecked. A checkbox always
// extracts a bool, so false is its untouched state inside a row group.
func uncheckedBox(f *Field, data any) bool {
	if _, ok := f.widget.(*widgets.Checkbox); !ok {
		return false
	}
	checked, ok := data.(bool)
	return ok && !checked
}
