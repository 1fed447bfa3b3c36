package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type storeOpener func(ctx context.Context, databaseURL string) (store.EventStoreInterface, func() error, error)

var errNoDatabase = errors.New("DATABASE_URL or --database-url is required")

// cli carries the flags and collaborators shared by every subcommand
type cli struct {
	cfg         config.Config
	openStore   storeOpener
	catalogFile string
	databaseURL string
	verbose     bool
}

func newRootCmd(cfg config.Config, open storeOpener) *cobra.Command {
	c := &cli{cfg: cfg, openStore: open}

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Inspect the storefront catalog, carts and orders",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.catalogFile, "catalog", cfg.CatalogFile, "catalog JSON file (default: embedded catalog)")
	root.PersistentFlags().StringVar(&c.databaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL journal connection string")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newCatalogCmd(c), newCartCmd(c), newOrdersCmd(c))
	return root
}

func (c *cli) catalog() (*catalog.Catalog, error) {
	if c.catalogFile == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(c.catalogFile)
}

func (c *cli) logger() *zap.Logger {
	if !c.verbose {
		return zap.NewNop()
	}
	logger, err := logging.New(logging.Options{Service: "storectl", Env: "dev", Level: "debug"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// journal opens the event store and hands it to fn, closing it afterwards
func (c *cli) journal(ctx context.Context, fn func(store.EventStoreInterface) error) error {
	if c.databaseURL == "" {
		return errNoDatabase
	}
	es, closeFn, err := c.openStore(ctx, c.databaseURL)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer closeFn()
	return fn(es)
}
