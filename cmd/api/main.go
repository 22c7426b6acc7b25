package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/luckypig3400/NEC-Backend/internal/config"
	"github.com/luckypig3400/NEC-Backend/internal/handler/health"
	pacsHandler "github.com/luckypig3400/NEC-Backend/internal/handler/pacs"
	promHandler "github.com/luckypig3400/NEC-Backend/internal/handler/prometheus"
	scheduleHandler "github.com/luckypig3400/NEC-Backend/internal/handler/schedule"
	"github.com/luckypig3400/NEC-Backend/internal/middleware"
	"github.com/luckypig3400/NEC-Backend/internal/repository"
	"github.com/luckypig3400/NEC-Backend/internal/repository/memory"
	"github.com/luckypig3400/NEC-Backend/internal/repository/mongo"
	"github.com/luckypig3400/NEC-Backend/internal/repository/postgres"
	"github.com/luckypig3400/NEC-Backend/internal/router"
	eventService "github.com/luckypig3400/NEC-Backend/internal/service/event"
	pacsService "github.com/luckypig3400/NEC-Backend/internal/service/pacs"
	scheduleService "github.com/luckypig3400/NEC-Backend/internal/service/schedule"
	"github.com/luckypig3400/NEC-Backend/pkg/logger"
	"github.com/luckypig3400/NEC-Backend/pkg/messaging"
	"github.com/luckypig3400/NEC-Backend/pkg/messaging/redis"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "nec-api",
		Short: "PACS settings and schedule API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*configPath)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create store indexes or tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			appLog := newLogger(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			store, err := openStore(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			appLog.Info("migration complete", "driver", cfg.Store.Driver)
			return nil
		},
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	})
	log.Logger = appLog.ZL
	zerolog.DefaultContextLogger = &appLog.ZL
	return appLog
}

func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		db, err := mongo.NewDB(ctx, mongo.Config{
			URI:            cfg.Store.Mongo.URI,
			Database:       cfg.Store.Mongo.Database,
			ConnectTimeout: cfg.Store.Mongo.ConnectTimeout,
			MaxPoolSize:    cfg.Store.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, err
		}
		return mongo.NewStore(db, m), nil
	case config.DriverPostgres:
		pg := cfg.Store.Postgres
		db, err := postgres.NewDB(postgres.Config{
			Host:            pg.Host,
			Port:            pg.Port,
			User:            pg.User,
			Password:        pg.Password,
			Name:            pg.Name,
			SSLMode:         pg.SSLMode,
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxLifetime: pg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db, m), nil
	case config.DriverMemory:
		return memory.NewStore(memory.NewDB()), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openBroker(ctx context.Context, cfg *config.Config, appLog *logger.Logger) (messaging.Broker, error) {
	if !cfg.Events.Enabled {
		return messaging.NopBroker{}, nil
	}
	r := cfg.Events.Redis
	return redis.NewRedisBroker(ctx, redis.Config{
		URL:          r.URL,
		MaxRetries:   r.MaxRetries,
		RetryBackoff: r.RetryBackoff,
		PoolSize:     r.PoolSize,
		MinIdleConns: r.MinIdleConns,
		MaxFailures:  r.MaxFailures,
		OpenTimeout:  r.OpenTimeout,
	}, appLog.ZL)
}

func runServer(configPath string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	appLog := newLogger(cfg)

	registry := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(cfg.Metrics.Namespace, registry)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize store
	store, err := openStore(startCtx, cfg, m)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			appLog.Error(err, "failed to close store")
		}
	}()

	// Initialize message broker
	broker, err := openBroker(startCtx, cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer broker.Close()

	// Initialize services
	events := eventService.NewEventService(broker, cfg.Events.Channel, m, appLog)
	pacsSvc := pacsService.NewService(store.DeviceConfigs, events)
	scheduleSvc := scheduleService.NewService(store, events)

	// Initialize handlers
	var metricsH *promHandler.Handler
	if m != nil {
		metricsH = promHandler.New(registry, m)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = cfg.CORS.AllowCredentials

	routerConfig := router.RouterConfig{
		Prefix:      cfg.Server.Prefix,
		Mode:        cfg.Server.Mode,
		CORSConfig:  corsConfig,
		Timeout:     cfg.Server.RequestTimeout,
		MaxBodySize: cfg.Server.MaxBodyBytes,
		MetricsPath: cfg.Metrics.Path,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	// Setup router
	r := router.NewRouter(
		appLog,
		routerConfig,
		health.NewHandler(store.Ping),
		metricsH,
		pacsHandler.NewHandler(pacsSvc),
		scheduleHandler.NewHandler(scheduleSvc),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	appLog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLog.Info("server exited")
	return nil
}
