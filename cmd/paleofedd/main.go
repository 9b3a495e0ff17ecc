// Command paleofedd runs the paleofed composite query gateway: an HTTP
// server fanning occurrence queries out to the paleobiology and
// Quaternary-fauna upstreams and merging the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arourke/paleofed/internal/api"
	"github.com/arourke/paleofed/internal/config"
	"github.com/arourke/paleofed/internal/configstore"
	"github.com/arourke/paleofed/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	dbPath     string
	host       string
	port       int
	apiPort    int
	jsonLogs   bool
	debug      bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file (overrides PALEOFED_CONFIG)")
	flag.StringVar(&f.dbPath, "db", "", "Path to the declaration-store SQLite file (overrides config)")
	flag.StringVar(&f.host, "host", "", "Override API bind host")
	flag.IntVar(&f.port, "port", 0, "Override API bind port")
	flag.IntVar(&f.apiPort, "api-port", 0, "Alias for -port")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.dbPath != "" {
		cfg.ConfigStore.Path = f.dbPath
	}
	if f.host != "" {
		cfg.API.Host = f.host
	}
	port := f.port
	if port == 0 {
		port = f.apiPort
	}
	if port != 0 {
		cfg.API.Port = port
	}
	if f.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(config.ResolveConfigPath(flags.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})
	logger.Info("paleofed starting",
		"paleobio_base_url", cfg.Upstream.PaleobioBaseURL,
		"quaternary_base_url", cfg.Upstream.QuaternaryBaseURL,
		"host", cfg.API.Host,
		"port", cfg.API.Port,
	)

	store, err := configstore.Open(cfg.ConfigStore.Path)
	if err != nil {
		return fmt.Errorf("failed to open declaration store: %w", err)
	}
	defer store.Close()

	requestTimeout, err := time.ParseDuration(cfg.Upstream.RequestTimeout)
	if err != nil || requestTimeout <= 0 {
		requestTimeout = time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second
	}
	client := &http.Client{Timeout: requestTimeout}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := api.New(cfg, logger, store, client)
	logger.Info("gateway listening", "addr", srv.Addr())

	go func() {
		serveErr := srv.ListenAndServe()
		if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
			return
		}
		logger.Error("API server error", "err", serveErr)
		cancel()
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("gateway stopped")
	return nil
}
