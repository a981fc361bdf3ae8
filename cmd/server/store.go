package main

import (
	"fmt"

	"github.com/DoyleJ11/draft-room/internal/storage"
	"github.com/DoyleJ11/draft-room/internal/storage/postgres"
	"github.com/DoyleJ11/draft-room/internal/storage/sqlite"
)

func openStore(cfg storage.Config) (storage.Store, error) {
	switch cfg.Driver {
	case storage.DriverMemory:
		return storage.NewMemory(), nil
	case storage.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case storage.DriverPostgres:
		return postgres.Open(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
