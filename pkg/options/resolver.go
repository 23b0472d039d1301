package options

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Resolver maps the source names referenced by selector widgets to Sources
// and memoizes each source's first result, so every source is fetched once.
type Resolver struct {
	mu      sync.Mutex
	sources map[string]Source
	entries map[string]*entry
	baseURL string
	httpOps []HTTPOption
}

type entry struct {
	once sync.Once
	opts []Option
	err  error
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithSource registers a named source.
func WithSource(name string, source Source) ResolverOption {
	return func(r *Resolver) {
		r.sources[strings.TrimSpace(name)] = source
	}
}

// WithBaseURL makes unknown source names resolve to HTTP sources at
// baseURL + "/" + name. Absolute URLs used as names are fetched directly.
func WithBaseURL(baseURL string, opts ...HTTPOption) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		r.httpOps = append(r.httpOps, opts...)
	}
}

// NewResolver constructs a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		sources: make(map[string]Source),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds or replaces a named source and drops any memoized result.
func (r *Resolver) Register(name string, source Source) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("options: source name required")
	}
	if source == nil {
		return fmt.Errorf("options: source %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = source
	delete(r.entries, name)
	return nil
}

// Names lists the registered source names in sorted order.
func (r *Resolver) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the source bound to name.
func (r *Resolver) Source(name string) (Source, bool) {
	name = strings.TrimSpace(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sourceLocked(name)
}

func (r *Resolver) sourceLocked(name string) (Source, bool) {
	if source, ok := r.sources[name]; ok {
		return source, true
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return NewHTTPSource(name, r.httpOps...), true
	}
	if r.baseURL != "" && name != "" {
		return NewHTTPSource(r.baseURL+"/"+strings.TrimLeft(name, "/"), r.httpOps...), true
	}
	return nil, false
}

// Fetch returns the rows of the named source. The first call performs the
// fetch; later calls return the memoized rows or error without retrying. A
// failure while ctx is done is not memoized, so the next caller fetches again.
func (r *Resolver) Fetch(ctx context.Context, name string) ([]Option, error) {
	name = strings.TrimSpace(name)
	r.mu.Lock()
	source, ok := r.sourceLocked(name)
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("options: source %q not found", name)
	}
	e, cached := r.entries[name]
	if !cached {
		e = &entry{}
		r.entries[name] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.opts, e.err = source.Options(ctx)
	})
	if e.err != nil && ctx != nil && ctx.Err() != nil {
		r.mu.Lock()
		if r.entries[name] == e {
			delete(r.entries, name)
		}
		r.mu.Unlock()
	}
	return cloneOptions(e.opts), e.err
}
