package optionrows

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtree/pkg/options"
)

// ErrNoRows is returned by LoadDir when the directory holds no row files.
var ErrNoRows = errors.New("optionrows: no row files found")

// LoadDir reads every *.json, *.yaml and *.yml file at the root of fsys as a
// list of option rows and registers it on a resolver under the file's base
// name: organisations.json becomes the source "organisations".
func LoadDir(fsys fs.FS, opts ...options.ResolverOption) (*options.Resolver, error) {
	if fsys == nil {
		return nil, fmt.Errorf("optionrows: file system is required")
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("optionrows: read dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	resolver := options.NewResolver(opts...)
	found := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			errs = append(errs, fmt.Errorf("optionrows: read %s: %w", entry.Name(), err))
			continue
		}
		rows, err := decodeRows(raw, ext)
		if err != nil {
			errs = append(errs, fmt.Errorf("optionrows: decode %s: %w", entry.Name(), err))
			continue
		}
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if err := resolver.Register(name, options.Static(rows)); err != nil {
			errs = append(errs, err)
			continue
		}
		found++
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if found == 0 {
		return nil, ErrNoRows
	}
	return resolver, nil
}

func decodeRows(raw []byte, ext string) ([]options.Option, error) {
	var rows []options.Option
	if ext == ".json" {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			continue
		}
		if row.Name == "" {
			row.Name = row.ID
		}
		out = append(out, row)
	}
	return out, nil
}
