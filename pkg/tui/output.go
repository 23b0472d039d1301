package tui

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits one "path: value" line per leaf.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat validates a format name.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(name) {
	case OutputFormatJSON, "":
		return OutputFormatJSON, nil
	case OutputFormatPrettyText:
		return OutputFormatPrettyText, nil
	default:
		return "", fmt.Errorf("tui: unknown output format %q", name)
	}
}

// Encode writes values to w in the requested format.
func Encode(w io.Writer, values map[string]any, format OutputFormat) error {
	switch format {
	case OutputFormatPrettyText:
		lines := make(map[string]string)
		flatten("", values, lines)
		keys := make([]string, 0, len(lines))
		for key := range lines {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, err := fmt.Fprintf(w, "%s: %s\n", key, lines[key]); err != nil {
				return err
			}
		}
		return nil
	default:
		payload, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("tui: encode values: %w", err)
		}
		_, err = w.Write(append(payload, '\n'))
		return err
	}
}

func flatten(prefix string, value any, out map[string]string) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			flatten(join(key), child, out)
		}
	case []any:
		for idx, child := range typed {
			flatten(join(strconv.Itoa(idx)), child, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(typed)
	}
}
