// Package formtree is the top-level entry point: it re-exports the generator
// and form types and offers one-call helpers for the common flows of building
// a form from a schema and checking a payload against it.
package formtree

import (
	"context"
	"errors"

	"github.com/goliatone/go-formtree/internal/loader"
	"github.com/goliatone/go-formtree/pkg/generator"
	"github.com/goliatone/go-formtree/pkg/schema"
)

// Form aliases generator.Form.
type Form = generator.Form

// Issue aliases generator.Issue.
type Issue = generator.Issue

// Option aliases generator.Option.
type Option = generator.Option

// NewGenerator exposes the generator constructor from the top-level module.
func NewGenerator(options ...Option) *generator.Generator {
	return generator.New(options...)
}

// NewLoader constructs a loader using the internal implementation while
// keeping the concrete type hidden from consumers.
func NewLoader(options schema.LoaderOptions) schema.Loader {
	return loader.New(options)
}

// BuildForm loads source and builds a form for typeName into a fresh tree.
func BuildForm(ctx context.Context, source schema.Source, typeName string, options ...Option) (*Form, error) {
	gen := generator.New(append([]Option{generator.WithSource(source)}, options...)...)
	return gen.BuildOne(ctx, nil, typeName)
}

// Check builds a form for typeName from doc, fills it with payload and
// returns what the form extracts together with the root fields that miss
// their requirement level. The form is destroyed before returning.
func Check(ctx context.Context, doc schema.Document, typeName string, payload map[string]any, options ...Option) (map[string]any, []Issue, error) {
	if ctx == nil {
		return nil, nil, errors.New("formtree: context is required")
	}
	gen := generator.New(append([]Option{generator.WithDocument(doc)}, options...)...)
	form, err := gen.BuildOne(ctx, nil, typeName)
	if err != nil {
		return nil, nil, err
	}
	defer form.Destroy()

	form.Fill(payload)
	gen.Tree().Loop().Flush()
	return form.Data(), form.Issues(), nil
}
