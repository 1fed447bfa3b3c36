// Command storectl inspects the storefront catalog and journal from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	root := newRootCmd(cfg, openPostgres)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openPostgres connects to the journal; the returned func closes the pool
func openPostgres(ctx context.Context, databaseURL string) (store.EventStoreInterface, func() error, error) {
	db, err := store.ConnectPostgres(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgresEventStore(db, nil), db.Close, nil
}
