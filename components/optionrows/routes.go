package optionrows

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Mux is the minimal interface required to register a handler. It is
// satisfied by *http.ServeMux and chi.Router.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the full route pattern under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	return mountPath(basePath, NewOptions(fns...).RoutePath)
}

// RegisterRoutes registers the handler under basePath on mux and returns the
// registered pattern.
func RegisterRoutes(mux Mux, basePath string, catalog Catalog, logger zerolog.Logger, fns ...OptionFn) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("optionrows: missing mux")
	}
	if catalog == nil {
		return "", fmt.Errorf("optionrows: missing catalog")
	}
	opts := NewOptions(fns...)
	pattern := mountPath(basePath, opts.RoutePath)
	mux.Handle(pattern, HandlerWithOptions(catalog, logger, opts))
	return pattern, nil
}

// SourceURL returns the URL prefix a resolver should use as its base URL to
// reach this component at origin, e.g. "http://host:8080/api/options".
func SourceURL(origin, basePath string, fns ...OptionFn) string {
	route := MountPath(basePath, fns...)
	route = strings.TrimSuffix(route, "{"+SourceParam+"}")
	return strings.TrimRight(origin, "/") + strings.TrimRight(route, "/")
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/") + routePath
}
