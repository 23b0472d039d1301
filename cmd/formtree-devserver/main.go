package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-formtree/internal/devserver"
	"github.com/goliatone/go-formtree/internal/logging"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	schemaPath := flag.String("schema", "", "schema document path")
	optionsDir := flag.String("options", "", "directory of option row files, one per source")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *schemaPath == "" {
		logger.Fatal().Msg("-schema is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = devserver.Run(ctx, devserver.Config{
		Addr:       *addr,
		SchemaPath: *schemaPath,
		OptionsDir: *optionsDir,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
