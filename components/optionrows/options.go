package optionrows

import "net/http"

// EmptySearchMode controls the response to a request without a query.
type EmptySearchMode string

const (
	// EmptySearchAll returns every row, which is what selectors loading a
	// whole source expect.
	EmptySearchAll EmptySearchMode = "all"
	// EmptySearchNone returns an empty list until the caller types.
	EmptySearchNone EmptySearchMode = "none"
	// EmptySearchTop returns the first rows up to the default limit.
	EmptySearchTop EmptySearchMode = "top"
)

// SourceParam is the path parameter naming the source.
const SourceParam = "source"

// GuardFunc can reject a request before any rows are read. Returning an error
// implementing HTTPError selects the response status.
type GuardFunc func(r *http.Request) error

// Options configures the handler and its routes.
type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Guard           GuardFunc
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the defaults applied by NewOptions.
func DefaultOptions() Options {
	return Options{
		RoutePath:       "/options/{" + SourceParam + "}",
		SearchParam:     "q",
		LimitParam:      "limit",
		DefaultLimit:    50,
		MaxLimit:        500,
		EmptySearchMode: EmptySearchAll,
	}
}

// NewOptions applies fns over the defaults and clamps invalid values back.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	defaults := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaults.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaults.MaxLimit
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = defaults.EmptySearchMode
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaults.RoutePath
	}
	if opts.SearchParam == "" {
		opts.SearchParam = defaults.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = defaults.LimitParam
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) { o.SearchParam = name }
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) { o.LimitParam = name }
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) { o.DefaultLimit = limit }
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) { o.MaxLimit = limit }
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) { o.EmptySearchMode = mode }
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

// limitFor resolves the effective row limit. Zero means unlimited.
func limitFor(requested int, query string, opts Options) int {
	if requested < 0 {
		requested = 0
	}
	if requested == 0 {
		if query == "" && opts.EmptySearchMode == EmptySearchAll {
			return 0
		}
		requested = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && requested > opts.MaxLimit {
		return opts.MaxLimit
	}
	return requested
}
