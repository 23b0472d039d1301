package optionrows

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Component bundles a catalog, its configuration and a logger.
type Component struct {
	catalog Catalog
	logger  zerolog.Logger
	opts    Options
}

// New constructs a component serving catalog.
func New(catalog Catalog, logger zerolog.Logger, fns ...OptionFn) *Component {
	return &Component{catalog: catalog, logger: logger, opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns the option rows handler.
func (c *Component) Handler() http.Handler {
	return HandlerWithOptions(c.catalog, c.logger, c.opts)
}

// RegisterRoutes registers the handler under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	return RegisterRoutes(mux, basePath, c.catalog, c.logger, func(o *Options) { *o = c.opts })
}
