package requirement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Level is the requirement policy of a field. Levels are totally ordered so
// callers compare them with >=.
type Level int

const (
	Optional Level = iota
	Recommended
	Mandatory
)

// Invalid marks a decoded level that did not parse. Decoding never fails on
// a bad level; registries reject the field carrying it instead.
const Invalid Level = -1

// String returns the canonical upper-case name.
func (l Level) String() string {
	switch l {
	case Optional:
		return "OPTIONAL"
	case Recommended:
		return "RECOMMENDED"
	case Mandatory:
		return "MANDATORY"
	case Invalid:
		return "INVALID"
	default:
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
}

// Valid reports whether the level is one of the declared constants.
func (l Level) Valid() bool {
	return l >= Optional && l <= Mandatory
}

// ParseLevel accepts the numeric form (0, 1, 2) or a case-insensitive name.
// Nil and empty strings map to Optional.
func ParseLevel(value any) (Level, error) {
	switch typed := value.(type) {
	case nil:
		return Optional, nil
	case Level:
		if !typed.Valid() {
			return Optional, fmt.Errorf("requirement: invalid level %d", int(typed))
		}
		return typed, nil
	case int:
		return ParseLevel(Level(typed))
	case int64:
		return ParseLevel(Level(typed))
	case float64:
		if typed != float64(int(typed)) {
			return Optional, fmt.Errorf("requirement: invalid level %v", typed)
		}
		return ParseLevel(Level(int(typed)))
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return Optional, nil
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			return ParseLevel(Level(n))
		}
		switch strings.ToUpper(trimmed) {
		case "OPTIONAL":
			return Optional, nil
		case "RECOMMENDED":
			return Recommended, nil
		case "MANDATORY", "REQUIRED":
			return Mandatory, nil
		}
		return Optional, fmt.Errorf("requirement: unknown level %q", typed)
	default:
		return Optional, fmt.Errorf("requirement: unsupported level type %T", value)
	}
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts names and numbers. Unknown names and out-of-range
// numbers decode as Invalid.
func (l *Level) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("requirement: decode level: %w", err)
	}
	*l = lenient(raw)
	return nil
}

// UnmarshalYAML accepts names and numbers. Unknown names and out-of-range
// numbers decode as Invalid.
func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("requirement: decode level: %w", err)
	}
	*l = lenient(raw)
	return nil
}

func lenient(raw any) Level {
	parsed, err := ParseLevel(raw)
	if err != nil {
		return Invalid
	}
	return parsed
}
