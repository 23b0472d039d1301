// Package options supplies the row data behind reference selectors: the option
// shape, where rows come from, and the keyword filter used while typing.
package options

import (
	"context"
	"strings"
)

// Option is one selectable row. The authoritative object is identified by ID
// alone; Name and Keywords only drive display and filtering.
type Option struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Tooltip  string   `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

// Source produces the option rows for one reference selector.
type Source interface {
	Options(ctx context.Context) ([]Option, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Option, error)

// Options implements Source.
func (fn SourceFunc) Options(ctx context.Context) ([]Option, error) {
	return fn(ctx)
}

// Static is an in-memory Source.
type Static []Option

// Options returns a copy of the rows.
func (s Static) Options(context.Context) ([]Option, error) {
	return cloneOptions(s), nil
}

// FindByID returns the option with the given id.
func FindByID(opts []Option, id string) (Option, bool) {
	id = strings.TrimSpace(id)
	for _, opt := range opts {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

func cloneOptions(in []Option) []Option {
	if in == nil {
		return nil
	}
	out := make([]Option, len(in))
	for i, opt := range in {
		opt.Keywords = append([]string(nil), opt.Keywords...)
		out[i] = opt
	}
	return out
}
