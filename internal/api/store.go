package api

import (
	"fmt"
	"io"

	"github.com/davidahmann/subscreen/internal/config"
	"github.com/davidahmann/subscreen/internal/ledger"
	"github.com/davidahmann/subscreen/internal/ledger/pgstore"
	"github.com/davidahmann/subscreen/internal/ledger/sqlstore"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenLedger opens and migrates the store named by cfg. An empty driver
// yields an in-memory store.
func OpenLedger(cfg config.DBConfig) (ledger.Store, io.Closer, error) {
	switch ledger.DBDriver(cfg.Driver) {
	case "":
		return ledger.NewInMemoryStore(), nopCloser{}, nil
	case ledger.DBSQLite:
		s, err := sqlstore.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := ledger.Migrate(s.DB(), ledger.DBSQLite); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return s, s, nil
	case ledger.DBPostgres:
		s, err := pgstore.OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := ledger.Migrate(s.DB(), ledger.DBPostgres); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unsupported db driver: %s", cfg.Driver)
	}
}
