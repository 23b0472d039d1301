package schema

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader fetches and decodes a schema document.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configures the default loader.
type LoaderOptions struct {
	// FileSystem backs SourceKindFS sources.
	FileSystem fs.FS
	// HTTPClient backs SourceKindURL sources. When nil and AllowHTTP is set,
	// a client with RequestTimeout is created.
	HTTPClient *http.Client
	AllowHTTP  bool
	// RequestTimeout bounds HTTP fetches. Zero means no timeout.
	RequestTimeout time.Duration
}
