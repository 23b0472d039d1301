// Package devserver assembles the development HTTP server: the schema
// document, its OpenAPI export, option rows for reference selectors and a
// submission endpoint validating payloads against a freshly built form.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/components/optionrows"
	"github.com/goliatone/go-formtree/pkg/export"
	"github.com/goliatone/go-formtree/pkg/generator"
	"github.com/goliatone/go-formtree/pkg/options"
	"github.com/goliatone/go-formtree/pkg/schema"
)

const maxSubmissionBytes = 1 << 20

// Config holds server configuration.
type Config struct {
	Addr       string
	SchemaPath string
	// OptionsDir holds one JSON or YAML row file per option source. Optional.
	OptionsDir string
	Logger     zerolog.Logger
}

// Server serves one schema document.
type Server struct {
	raw     []byte
	doc     schema.Document
	catalog *options.Resolver
	logger  zerolog.Logger
}

// New reads the schema and the option rows.
func New(cfg Config) (*Server, error) {
	raw, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("devserver: read schema: %w", err)
	}
	doc, err := schema.DecodeDocument(schema.SourceFromFile(cfg.SchemaPath), raw)
	if err != nil {
		return nil, fmt.Errorf("devserver: %w", err)
	}

	catalog := options.NewResolver()
	if cfg.OptionsDir != "" {
		catalog, err = optionrows.LoadDir(os.DirFS(cfg.OptionsDir))
		if err != nil {
			return nil, fmt.Errorf("devserver: load options: %w", err)
		}
	}
	return &Server{raw: raw, doc: doc, catalog: catalog, logger: cfg.Logger}, nil
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/schema", s.serveSchema)
	r.Get("/openapi.json", s.serveOpenAPI)
	r.Post("/forms/{type}", s.submit)

	component := optionrows.New(s.catalog, s.logger)
	if _, err := component.RegisterRoutes(r, "/api"); err != nil {
		s.logger.Error().Err(err).Msg("option routes not registered")
	}
	return r
}

func (s *Server) serveSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(s.raw)
}

func (s *Server) serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	gen := s.newGenerator()
	if err := gen.LoadSchema(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, export.Document(gen.Registry(), "formtree", "1.0.0"))
}

// SubmitResult is the response of the submission endpoint.
type SubmitResult struct {
	Type   string            `json:"type"`
	Valid  bool              `json:"valid"`
	Data   map[string]any    `json:"data"`
	Issues []generator.Issue `json:"issues"`
}

// submit fills a new form with the posted payload and reports what the form
// extracts and which root fields miss their requirement level.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSubmissionBytes))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	typeName := chi.URLParam(r, "type")
	gen := s.newGenerator()
	form, err := gen.BuildOne(r.Context(), nil, typeName)
	if errors.Is(err, generator.ErrUnknownType) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer form.Destroy()

	gen.Tree().Loop().Flush()
	form.Fill(payload)
	gen.Tree().Loop().Flush()

	result := SubmitResult{
		Type:   typeName,
		Data:   form.Data(),
		Issues: form.Issues(),
	}
	result.Valid = len(result.Issues) == 0
	if result.Issues == nil {
		result.Issues = []generator.Issue{}
	}
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// newGenerator returns a per-request generator. Field trees are not safe for
// concurrent use, the option catalog is shared.
func (s *Server) newGenerator() *generator.Generator {
	return generator.New(
		generator.WithDocument(s.doc),
		generator.WithOptionResolver(s.catalog),
		generator.WithLogger(s.logger),
	)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// Run serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	cfg.Logger.Info().Str("addr", cfg.Addr).Str("schema", filepath.Base(cfg.SchemaPath)).Msg("serving")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
