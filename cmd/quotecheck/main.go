package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quotecheck/internal/adapter/browser"
	"quotecheck/internal/adapter/cache"
	"quotecheck/internal/adapter/generator"
	"quotecheck/internal/adapter/handler"
	"quotecheck/internal/adapter/source"
	"quotecheck/internal/adapter/storage"
	"quotecheck/internal/application/service"
	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
	"quotecheck/internal/infrastructure/config"
	"quotecheck/internal/infrastructure/logger"
	"quotecheck/internal/infrastructure/server"
	"quotecheck/internal/infrastructure/terminal"
)

const defaultConfigPath = "configs/config.yaml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to the YAML config")
	modeFlag   = flag.String("mode", "", "Quote source: live or test")
	helpFlag   = flag.Bool("help", false, "Show help")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printUsage()
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logOut := io.Writer(os.Stderr)
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}

	log := logger.New(logOut, cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting quotecheck", "mode", cfg.DataMode().String(), "symbols", cfg.Symbols, "log_file", cfg.LogFile)

	if err := run(cfg, log); err != nil {
		log.Error("quotecheck failed", "error", err)
		fmt.Fprintf(os.Stderr, "quotecheck: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig falls back to built-in defaults when the default config file
// is absent. An explicit --config must exist.
func loadConfig() (*config.Config, error) {
	path := *configPath
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if *modeFlag != "" {
		mode, err := model.ParseDataMode(*modeFlag)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode.String()
	}
	return cfg, nil
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	csvLog := storage.NewCSVLog(cfg.LogFile)
	if err := csvLog.EnsureHeader(); err != nil {
		return err
	}

	var (
		mirrors      []port.ComparisonSink
		storageStore port.StoragePort
		cacheStore   port.CachePort
	)

	if cfg.PostgreSQL.Enabled {
		pg, err := storage.NewPostgresAdapter(
			cfg.PostgresDSN(),
			cfg.PostgreSQL.MaxOpenConns,
			cfg.PostgreSQL.MaxIdleConns,
			cfg.PostgreSQL.ConnMaxLifetime,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres: %w", err)
		}
		defer pg.Close()

		if err := pg.InitSchema(ctx); err != nil {
			return err
		}
		storageStore = pg
		mirrors = append(mirrors, pg)
		log.Info("postgres mirror enabled", "host", cfg.PostgreSQL.Host, "database", cfg.PostgreSQL.Database)
	}

	if cfg.Redis.Enabled {
		rd, err := cache.NewRedisAdapter(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rd.Close()

		if err := rd.DeleteOlderThan(ctx, time.Now().Add(-cfg.Redis.TTL)); err != nil {
			log.Warn("failed to trim stale comparisons", "error", err)
		}
		cacheStore = rd
		mirrors = append(mirrors, rd)
		log.Info("redis cache enabled", "addr", cfg.RedisAddr())
	}

	var hub *handler.Hub
	if cfg.Server.Port > 0 {
		hub = handler.NewHub(64, log)
		defer hub.Close()
		mirrors = append(mirrors, hub)
	}

	primary, secondary, session, err := newSources(cfg, log)
	if err != nil {
		return err
	}

	reporter := service.NewReporter(os.Stdout, csvLog, log, mirrors...)
	monitor := service.NewMonitor(
		primary,
		secondary,
		reporter,
		session,
		cfg.Symbols,
		cfg.Interval,
		os.Stdout,
		log,
		service.WithScreenClearer(terminal.Clear),
	)

	if hub != nil {
		healthHandler := handler.NewHealthHandler(storageStore, cacheStore, func() string { return monitor.State().String() }, log)
		comparisonHandler := handler.NewComparisonHandler(storageStore, cacheStore, log)

		mux := http.NewServeMux()
		mux.HandleFunc("GET /health", healthHandler.Check)
		mux.HandleFunc("GET /comparisons/latest/{symbol}", comparisonHandler.GetLatest)
		mux.HandleFunc("GET /comparisons/window/{symbol}", comparisonHandler.GetWindow)
		mux.HandleFunc("GET /comparisons/stats/{symbol}", comparisonHandler.GetStats)
		mux.HandleFunc("GET /ws", hub.ServeWS)

		srv := server.NewServer(cfg.Server.Port, mux, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, log)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("status server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	return monitor.Run(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newSources(cfg *config.Config, log *slog.Logger) (port.PriceSource, port.PriceSource, io.Closer, error) {
	if cfg.DataMode() == model.TestMode {
		seed := cfg.Test.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		log.Info("using synthetic quotes", "seed", seed)
		market := generator.NewMarket(seed, log)
		return market.Primary(), market.Secondary(), nopCloser{}, nil
	}

	session, err := browser.NewSession(browser.Options{
		Headless:        !cfg.Browser.ShowWindow,
		ExecPath:        cfg.Browser.ExecPath,
		NavigateTimeout: cfg.Browser.NavigateTimeout,
		PollInterval:    cfg.Browser.PollInterval,
	}, log)
	if err != nil {
		return nil, nil, nil, err
	}

	yahoo := source.NewYahoo(session, cfg.Sources.YahooURL, cfg.Browser.WaitTimeout)
	google := source.NewGoogle(session, cfg.Sources.GoogleURL, cfg.Browser.WaitTimeout, cfg.ExchangeTable())
	return yahoo, google, session, nil
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  quotecheck [--config <path>] [--mode live|test]")
	fmt.Println("  quotecheck --help")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH   YAML config (default configs/config.yaml, built-in defaults when absent)")
	fmt.Println("  --mode MODE     live scrapes Yahoo and Google Finance, test uses synthetic quotes")
	fmt.Println()
	fmt.Print(config.Usage())
}
