package core

import (
	"fmt"

	"pdfcore/internal/config"
	"pdfcore/internal/infra/persistence/memory"
	"pdfcore/internal/infra/persistence/postgres"
	"pdfcore/internal/infra/persistence/sqlite"
	"pdfcore/pkg/domain"
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// OpenPersistentStore selects a backend from cfg. Memory is the default.
func OpenPersistentStore(cfg config.Storage, engine *RulesEngine) (PersistentStore, error) {
	switch cfg.Driver {
	case config.StorageMemory, "":
		return memory.NewStore(engine), nil
	case config.StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case config.StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
