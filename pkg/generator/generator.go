// Package generator wires the schema loader, the structure registry and the
// field layer together: it fetches the schema document once and builds form
// trees for named structures into a host element.
package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/internal/loader"
	"github.com/goliatone/go-formtree/pkg/dom"
	"github.com/goliatone/go-formtree/pkg/field"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// DefaultRequestTimeout bounds schema fetches made by the default loader.
const DefaultRequestTimeout = 30 * time.Second

// ErrUnknownType reports a Build request for a type the schema does not
// declare.
var ErrUnknownType = errors.New("generator: unknown type")

// Option customises the generator configuration.
type Option func(*Generator)

// WithSource sets where the schema document lives.
func WithSource(src schema.Source) Option {
	return func(g *Generator) {
		g.source = src
	}
}

// WithDocument supplies an already decoded schema document, bypassing the
// loader.
func WithDocument(doc schema.Document) Option {
	return func(g *Generator) {
		g.document = &doc
	}
}

// WithLoader injects a custom schema loader.
func WithLoader(l schema.Loader) Option {
	return func(g *Generator) {
		g.loader = l
	}
}

// WithLoaderOptions configures the default loader.
func WithLoaderOptions(opts schema.LoaderOptions) Option {
	return func(g *Generator) {
		g.loaderOptions = opts
	}
}

// WithWidgets sets the widget registry used to resolve widget types.
func WithWidgets(reg *widgets.Registry) Option {
	return func(g *Generator) {
		g.widgets = reg
	}
}

// WithOptionResolver sets the source of reference selector options.
func WithOptionResolver(fetcher widgets.Fetcher) Option {
	return func(g *Generator) {
		g.options = fetcher
	}
}

// WithLogger sets the logger shared by every layer.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithDocumentTree sets the element tree forms are built into.
func WithDocumentTree(doc *dom.Document) Option {
	return func(g *Generator) {
		g.tree = doc
	}
}

// WithSanitizer overrides the policy applied to label and tooltip text.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(g *Generator) {
		g.sanitizer = policy
	}
}

// WithBuildOptions sets how root fields render.
func WithBuildOptions(opts field.BuildOptions) Option {
	return func(g *Generator) {
		g.buildOptions = opts
	}
}

// Generator loads a schema document once and builds forms from it. Callers
// may share one Generator across forms of the same schema.
type Generator struct {
	source        schema.Source
	document      *schema.Document
	loader        schema.Loader
	loaderOptions schema.LoaderOptions
	widgets       *widgets.Registry
	options       widgets.Fetcher
	logger        zerolog.Logger
	tree          *dom.Document
	sanitizer     *bluemonday.Policy
	buildOptions  field.BuildOptions

	registry *schema.Registry

	mu        sync.Mutex
	loaded    bool
	loadErr   error
	configErr error
}

// New constructs a Generator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Generator {
	g := &Generator{
		logger:       zerolog.Nop(),
		buildOptions: field.BuildOptions{ShowLabel: true},
		loaderOptions: schema.LoaderOptions{
			AllowHTTP:      true,
			RequestTimeout: DefaultRequestTimeout,
		},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	g.applyDefaults()
	return g
}

func (g *Generator) applyDefaults() {
	if g.widgets == nil {
		g.widgets = widgets.NewDefaultRegistry()
	}
	if g.loader == nil {
		g.loader = loader.New(g.loaderOptions)
	}
	if g.tree == nil {
		g.tree = dom.NewDocument()
	}
	g.registry = schema.NewRegistry(
		schema.WithWidgets(g.widgets),
		schema.WithLogger(g.logger),
	)
}

// Registry returns the structure registry the schema is loaded into.
func (g *Generator) Registry() *schema.Registry {
	return g.registry
}

// Tree returns the element tree forms are built into.
func (g *Generator) Tree() *dom.Document {
	return g.tree
}

// LoadSchema fetches and registers the schema document. The first call does
// the work; later calls return its result. Configuration problems inside the
// document do not fail the load, see ConfigErrors.
func (g *Generator) LoadSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("generator: context is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loaded {
		return g.loadErr
	}

	doc, err := g.resolveDocument(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}
		g.loaded = true
		g.loadErr = err
		g.logger.Error().Err(err).Str("source", g.source.String()).Msg("schema load failed")
		return err
	}

	structures, cfgErr := g.registry.ParseModels(doc.Data)
	g.loaded = true
	g.configErr = cfgErr
	g.logger.Debug().Int("structures", len(structures)).Msg("schema registered")
	return nil
}

// ConfigErrors returns the configuration problems found while registering the
// schema, joined. They were logged and the affected subfields skipped.
func (g *Generator) ConfigErrors() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.configErr
}

func (g *Generator) resolveDocument(ctx context.Context) (schema.Document, error) {
	if g.document != nil {
		return *g.document, nil
	}
	if g.source.IsZero() {
		return schema.Document{}, errors.New("generator: source or document is required")
	}
	doc, err := g.loader.Load(ctx, g.source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("generator: load schema: %w", err)
	}
	return doc, nil
}

// Build loads the schema if needed and builds one form per type name into
// host, or into the tree's body when host is nil. Unknown types are logged and
// skipped; the forms that could be built are returned together with the
// joined ErrUnknownType errors.
func (g *Generator) Build(ctx context.Context, host *dom.Element, typeNames ...string) ([]*Form, error) {
	if err := g.LoadSchema(ctx); err != nil {
		return nil, err
	}
	if host == nil {
		host = g.tree.Body()
	}

	env := &field.Env{
		Document:  g.tree,
		Options:   g.options,
		Logger:    g.logger,
		Context:   ctx,
		Sanitizer: g.sanitizer,
	}

	var (
		forms []*Form
		errs  []error
	)
	for _, name := range typeNames {
		structure, ok := g.registry.Lookup(name)
		if !ok {
			g.logger.Error().Str("type", name).Msg("cannot build form for unknown type")
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownType, name))
			continue
		}
		forms = append(forms, newForm(env, structure, host, g.buildOptions))
	}
	return forms, errors.Join(errs...)
}

// BuildOne builds a single form.
func (g *Generator) BuildOne(ctx context.Context, host *dom.Element, typeName string) (*Form, error) {
	forms, err := g.Build(ctx, host, typeName)
	if err != nil {
		return nil, err
	}
	return forms[0], nil
}
