package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"bank-personalization/internal/storage"
)

const clientsFile = "clients.csv"

var (
	transactionsFile = regexp.MustCompile(`^client_(\d+)_transactions_3m\.csv$`)
	transfersFile    = regexp.MustCompile(`^client_(\d+)_transfers_3m\.csv$`)
)

// Stats summarizes one directory load.
type Stats struct {
	Clients      int
	Transactions int
	Transfers    int
	SkippedRows  int
	Files        int
}

// Loader reads a dataset directory into stores.
type Loader struct {
	clients      storage.ClientStore
	transactions storage.TransactionStore
	transfers    storage.TransferStore
	log          zerolog.Logger
}

// NewLoader creates a loader writing to the given stores.
func NewLoader(clients storage.ClientStore, transactions storage.TransactionStore, transfers storage.TransferStore, log zerolog.Logger) *Loader {
	return &Loader{
		clients:      clients,
		transactions: transactions,
		transfers:    transfers,
		log:          log.With().Str("component", "ingest").Logger(),
	}
}

// LoadDir loads clients.csv and every per-client file in dir.
// Files are processed in name order so repeated loads insert in the same order.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Stats, error) {
	var stats Stats

	f, err := os.Open(filepath.Join(dir, clientsFile))
	if err != nil {
		return stats, fmt.Errorf("open %s: %w", clientsFile, err)
	}
	clients, skipped, err := ReadClients(f)
	f.Close()
	if err != nil {
		return stats, fmt.Errorf("read %s: %w", clientsFile, err)
	}
	if err := l.clients.InsertClients(ctx, clients); err != nil {
		return stats, fmt.Errorf("insert clients: %w", err)
	}
	stats.Files++
	stats.Clients = len(clients)
	stats.SkippedRows += skipped
	if skipped > 0 {
		l.log.Warn().Str("file", clientsFile).Int("skipped", skipped).Msg("rows skipped")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var n, skipped int
		var err error
		switch {
		case transactionsFile.MatchString(name):
			n, skipped, err = l.loadTransactions(ctx, filepath.Join(dir, name), fileClientCode(transactionsFile, name))
			stats.Transactions += n
		case transfersFile.MatchString(name):
			n, skipped, err = l.loadTransfers(ctx, filepath.Join(dir, name), fileClientCode(transfersFile, name))
			stats.Transfers += n
		default:
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("load %s: %w", name, err)
		}
		stats.Files++
		stats.SkippedRows += skipped
		if skipped > 0 {
			l.log.Warn().Str("file", name).Int("skipped", skipped).Msg("rows skipped")
		}
		l.log.Debug().Str("file", name).Int("rows", n).Msg("file loaded")
	}

	l.log.Info().
		Int("files", stats.Files).
		Int("clients", stats.Clients).
		Int("transactions", stats.Transactions).
		Int("transfers", stats.Transfers).
		Int("skipped", stats.SkippedRows).
		Msg("dataset loaded")
	return stats, nil
}

func (l *Loader) loadTransactions(ctx context.Context, path string, code int64) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	txs, skipped, err := ReadTransactions(f, code)
	if err != nil {
		return 0, 0, err
	}
	if err := l.transactions.InsertTransactions(ctx, txs); err != nil {
		return 0, 0, fmt.Errorf("insert transactions: %w", err)
	}
	return len(txs), skipped, nil
}

func (l *Loader) loadTransfers(ctx context.Context, path string, code int64) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	transfers, skipped, err := ReadTransfers(f, code)
	if err != nil {
		return 0, 0, err
	}
	if err := l.transfers.InsertTransfers(ctx, transfers); err != nil {
		return 0, 0, fmt.Errorf("insert transfers: %w", err)
	}
	return len(transfers), skipped, nil
}

func fileClientCode(re *regexp.Regexp, name string) int64 {
	m := re.FindStringSubmatch(name)
	if len(m) != 2 {
		return 0
	}
	code, _ := strconv.ParseInt(m[1], 10, 64)
	return code
}
