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

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/projection"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/realtime"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{Service: "storefront-api", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
	logger.Info("api stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}

	products, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", zap.Int("products", products.Len()))

	g, ctx := errgroup.WithContext(ctx)

	// Read side: the projector keeps order history in memory
	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore, logger)

	// Publisher: Kafka when brokers are configured, otherwise project in-process
	var publisher store.Publisher = projector
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer

		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "storefront-projector", logger)
		defer consumer.Close()
		g.Go(func() error {
			if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
				return fmt.Errorf("projector consumer: %w", err)
			}
			return nil
		})
		logger.Info("publishing to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	// Write side: Postgres journal when configured, otherwise process memory
	var eventStore store.EventStoreInterface
	if cfg.DatabaseURL != "" {
		db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			return err
		}
		eventStore = store.NewPostgresEventStore(db, publisher)

		if _, err := projector.Replay(ctx, eventStore); err != nil {
			return err
		}
		logger.Info("using postgres event store")
	} else {
		eventStore = store.NewEventStore(publisher)
		logger.Info("using in-memory event store")
	}

	// Domain services
	cartSvc := cart.NewService(eventStore, logger)
	orderSvc := order.NewService(eventStore)
	hub := realtime.NewHub(logger)
	cartSvc.Subscribe(hub)

	authenticator := auth.NewMockAuthenticator(
		auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL),
		logger,
		auth.WithResetDelay(cfg.PasswordResetDelay),
	)

	cmdHandler := command.NewHandler(products, cartSvc, orderSvc, logger)
	queryHandler := query.NewHandler(products, cartSvc, readStore, cfg.PageSize)

	router := api.NewRouter(
		api.NewHandlers(cmdHandler, queryHandler, hub, logger),
		api.NewAuthHandlers(authenticator, cartSvc, logger),
		authenticator,
		logger,
		cfg.WebDir,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server started", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}
