package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bank-personalization/internal/storage"
	chstore "bank-personalization/internal/storage/clickhouse"
	"bank-personalization/internal/storage/memory"
	"bank-personalization/internal/storage/migrations"
	pgstore "bank-personalization/internal/storage/postgres"
)

// StoreConfig selects the storage backends.
type StoreConfig struct {
	UseMemory     bool
	PostgresDSN   string
	ClickhouseDSN string // optional, enables the analytics sink
	MaxConns      int32
	Migrate       bool // apply embedded migrations on connect
}

// Stores holds every storage implementation a command may need.
type Stores struct {
	Clients      storage.ClientStore
	Transactions storage.TransactionStore
	Transfers    storage.TransferStore
	Holdings     storage.HoldingStore
	Catalog      storage.CatalogStore
	Results      storage.ResultStore
	Runs         storage.RunStore
	Analytics    storage.AnalyticsSink // nil when disabled

	closers []func()
}

// Close releases every connection in reverse open order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// MemoryStores returns empty in-memory stores with the default catalog.
func MemoryStores() *Stores {
	txs := memory.NewTransactionStore()
	return &Stores{
		Clients:      memory.NewClientStore(),
		Transactions: txs,
		Transfers:    memory.NewTransferStore(),
		Holdings:     memory.NewHoldingStore(txs),
		Catalog:      memory.NewCatalogStore(nil),
		Results:      memory.NewResultStore(),
		Runs:         memory.NewRunStore(),
		Analytics:    memory.NewAnalyticsSink(),
	}
}

// OpenStores connects the configured backends.
func OpenStores(ctx context.Context, cfg StoreConfig, log zerolog.Logger) (*Stores, error) {
	if cfg.UseMemory {
		return MemoryStores(), nil
	}
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres dsn is required without memory mode")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	s := &Stores{
		Clients:      pgstore.NewClientStore(pool),
		Transactions: pgstore.NewTransactionStore(pool),
		Transfers:    pgstore.NewTransferStore(pool),
		Holdings:     pgstore.NewHoldingStore(pool),
		Catalog:      pgstore.NewCatalogStore(pool),
		Results:      pgstore.NewResultStore(pool),
		Runs:         pgstore.NewRunStore(pool),
		closers:      []func(){pool.Close},
	}

	if cfg.Migrate {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.Info().Strs("applied", applied).Msg("postgres migrations done")
	}

	if cfg.ClickhouseDSN == "" {
		return s, nil
	}

	var conn *chstore.Conn
	if cfg.Migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	s.Analytics = chstore.NewAnalyticsStore(conn)
	s.closers = append(s.closers, func() { _ = conn.Close() })
	return s, nil
}
