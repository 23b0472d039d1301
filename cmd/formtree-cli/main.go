package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtree/internal/logging"
	"github.com/goliatone/go-formtree/pkg/export"
	"github.com/goliatone/go-formtree/pkg/generator"
	"github.com/goliatone/go-formtree/pkg/options"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/tui"
)

type config struct {
	schema      string
	typeName    string
	data        string
	interactive bool
	openapi     bool
	format      string
	optionsURL  string
	resultsPath string
	output      string
	strict      bool
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "formtree: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("formtree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.schema, "schema", "", "schema document path or URL")
	fs.StringVar(&cfg.typeName, "type", "", "type to build a form for (lists types when empty)")
	fs.StringVar(&cfg.data, "data", "", "JSON or YAML file prefilling the form")
	fs.BoolVar(&cfg.interactive, "interactive", false, "fill the form from the terminal")
	fs.BoolVar(&cfg.openapi, "openapi", false, "print the OpenAPI components describing the schema")
	fs.StringVar(&cfg.format, "format", "json", "output format: json or pretty")
	fs.StringVar(&cfg.optionsURL, "options", "", "base URL serving reference option rows")
	fs.StringVar(&cfg.resultsPath, "options-path", "data", "path of the row array inside option responses")
	fs.StringVar(&cfg.output, "output", "", "output file (stdout if empty)")
	fs.BoolVar(&cfg.strict, "strict", false, "fail when the form does not meet its requirement levels")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if strings.TrimSpace(cfg.schema) == "" {
		return cfg, errors.New("-schema is required")
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.logLevel, Output: stderr})
	if err != nil {
		return err
	}
	format, err := tui.ParseOutputFormat(cfg.format)
	if err != nil {
		return err
	}
	src, err := schema.ParseSource(cfg.schema)
	if err != nil {
		return err
	}

	genOpts := []generator.Option{
		generator.WithSource(src),
		generator.WithLogger(logger),
	}
	if cfg.optionsURL != "" {
		resolver := options.NewResolver(options.WithBaseURL(cfg.optionsURL, options.WithResultsPath(cfg.resultsPath)))
		genOpts = append(genOpts, generator.WithOptionResolver(resolver))
	}
	gen := generator.New(genOpts...)
	if err := gen.LoadSchema(ctx); err != nil {
		return err
	}
	if cfgErr := gen.ConfigErrors(); cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("schema has configuration problems")
	}

	out := stdout
	if cfg.output != "" {
		file, err := os.Create(cfg.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	if cfg.openapi {
		doc := export.Document(gen.Registry(), filepath.Base(src.Location()), "1.0.0")
		payload, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode openapi: %w", err)
		}
		_, err = out.Write(append(payload, '\n'))
		return err
	}

	if cfg.typeName == "" {
		for _, name := range gen.Registry().Names() {
			// implicit widget structures declare no fields
			if structure, ok := gen.Registry().Lookup(name); !ok || structure.TopField == nil {
				continue
			}
			if _, err := fmt.Fprintln(out, name); err != nil {
				return err
			}
		}
		return nil
	}

	values, err := fillForm(ctx, gen, cfg, logger, stderr)
	if err != nil {
		return err
	}
	return tui.Encode(out, values, format)
}

func fillForm(ctx context.Context, gen *generator.Generator, cfg config, logger zerolog.Logger, stderr io.Writer) (map[string]any, error) {
	form, err := gen.BuildOne(ctx, nil, cfg.typeName)
	if err != nil {
		return nil, err
	}
	defer form.Destroy()

	if cfg.data != "" {
		prefill, err := readData(cfg.data)
		if err != nil {
			return nil, err
		}
		form.Fill(prefill)
	}
	gen.Tree().Loop().Flush()

	values := form.Data()
	if cfg.interactive {
		filler := tui.New(
			tui.WithPromptDriver(tui.NewSurveyDriver(stderr)),
			tui.WithLogger(logger),
		)
		if values, err = filler.Fill(ctx, form); err != nil {
			return nil, err
		}
	}

	issues := form.Issues()
	for _, issue := range issues {
		logger.Warn().Str("field", issue.Field).Str("level", issue.Level).Msg(issue.Message)
	}
	if cfg.strict && len(issues) > 0 {
		return nil, fmt.Errorf("%d field(s) do not meet their requirement level", len(issues))
	}
	return values, nil
}

func readData(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	out := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &out)
	default:
		err = json.Unmarshal(raw, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("decode data %s: %w", path, err)
	}
	return out, nil
}
