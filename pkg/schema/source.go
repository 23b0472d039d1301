// Package schema holds the registry of model field structures: the serialized
// document shapes, the two-pass resolver that links subfields to the
// structures they reference, and widget-type resolution across those links.
package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind enumerates where a schema document can be loaded from.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies the origin of a schema document.
type Source struct {
	kind     SourceKind
	location string
}

// Kind returns the loader modality.
func (s Source) Kind() SourceKind { return s.kind }

// Location returns the path or URL.
func (s Source) Location() string { return s.location }

// IsZero reports whether the source is unset.
func (s Source) IsZero() bool { return s.kind == "" }

func (s Source) String() string {
	if s.IsZero() {
		return "<none>"
	}
	return string(s.kind) + ":" + s.location
}

// SourceFromFile points at a file on disk.
func SourceFromFile(path string) Source {
	return Source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS points at an entry inside an fs.FS.
func SourceFromFS(name string) Source {
	return Source{kind: SourceKindFS, location: name}
}

// SourceFromURL validates raw and points at it.
func SourceFromURL(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, fmt.Errorf("schema: empty URL source")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return Source{}, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Source{}, fmt.Errorf("schema: unsupported URL scheme %q", parsed.Scheme)
	}
	return Source{kind: SourceKindURL, location: raw}, nil
}

// ParseSource picks the URL form for http(s) locations and the file form for
// everything else.
func ParseSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Source{}, fmt.Errorf("schema: source location is required")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return SourceFromURL(location)
	}
	return SourceFromFile(location), nil
}
