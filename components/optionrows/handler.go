package optionrows

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/options"
)

// Catalog resolves source names to rows. *options.Resolver satisfies it.
type Catalog interface {
	Source(name string) (options.Source, bool)
	Fetch(ctx context.Context, name string) ([]options.Option, error)
}

// HTTPError carries the status a guard rejection should produce.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is a ready-made HTTPError.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Response is the JSON envelope written by the handler.
type Response struct {
	Source string           `json:"source"`
	Data   []options.Option `json:"data"`
}

// Handler builds the handler over catalog with defaults plus overrides.
func Handler(catalog Catalog, logger zerolog.Logger, fns ...OptionFn) http.Handler {
	return HandlerWithOptions(catalog, logger, NewOptions(fns...))
}

// HandlerWithOptions builds the handler from a pre-built Options value.
func HandlerWithOptions(catalog Catalog, logger zerolog.Logger, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		name := sourceName(r)
		if catalog == nil || name == "" {
			http.NotFound(w, r)
			return
		}
		if _, ok := catalog.Source(name); !ok {
			http.NotFound(w, r)
			return
		}
		rows, err := catalog.Fetch(r.Context(), name)
		if err != nil {
			logger.Error().Err(err).Str("source", name).Msg("option source failed")
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get(opts.SearchParam))
		limit := limitFor(parseInt(r.URL.Query().Get(opts.LimitParam)), query, opts)
		results := search(rows, query, limit, opts)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if err := json.NewEncoder(w).Encode(Response{Source: name, Data: results}); err != nil {
			logger.Debug().Err(err).Str("source", name).Msg("response write failed")
		}
	})
}

func search(rows []options.Option, query string, limit int, opts Options) []options.Option {
	if query == "" && opts.EmptySearchMode == EmptySearchNone {
		return []options.Option{}
	}
	results := options.Filter(rows, query, limit)
	if results == nil {
		results = []options.Option{}
	}
	return results
}

// sourceName reads the source path parameter from chi, then from the
// standard mux, then falls back to the last path segment.
func sourceName(r *http.Request) string {
	if name := chi.URLParam(r, SourceParam); name != "" {
		return name
	}
	if name := r.PathValue(SourceParam); name != "" {
		return name
	}
	path := strings.TrimRight(r.URL.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		if status := httpErr.StatusCode(); status > 0 {
			code = status
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
