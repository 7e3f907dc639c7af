package main

import (
	"flag"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/davidahmann/subscreen/internal/api"
	"github.com/davidahmann/subscreen/internal/auth"
	"github.com/davidahmann/subscreen/internal/config"
	"github.com/davidahmann/subscreen/internal/logging"
	"github.com/davidahmann/subscreen/internal/metrics"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(cfg config.Config, logger *slog.Logger) (*http.Server, io.Closer, error) {
	store, closer, err := api.OpenLedger(cfg.DB)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.NewReviewMetrics(cfg.Metrics.Namespace)
	service, err := api.NewReviewService(api.NewReviewServiceInput{
		RulesetPath: cfg.RulesetPath,
		Ledger:      store,
		Logger:      logger,
		Observer:    m,
	})
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	h := &api.Handler{
		Auth:          auth.NewAuthenticatorFromEnv(),
		ReviewService: service,
		Metrics:       m.Handler(),
	}
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, closer, nil
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config, logger *slog.Logger) (*http.Server, io.Closer, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("subscreen-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to subscreen config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("SUBSCREEN_CONFIG_PATH")
	}

	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cfg.ListenAddr = firstNonEmpty(getenv("SUBSCREEN_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	cfg.RulesetPath = firstNonEmpty(getenv("SUBSCREEN_RULESET_PATH"), cfg.RulesetPath)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log, os.Stderr)
	server, closer, err := factory(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("subscreen-gateway listening", slog.String("addr", cfg.ListenAddr))
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
