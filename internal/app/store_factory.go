package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/semla/internal/store"
	"github.com/shrimpsizemoose/semla/internal/store/postgres"
	"github.com/shrimpsizemoose/semla/internal/store/sqlite"
)

func NewStore(dsn, migrationsDir string) (store.ScoreStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}

	config := &store.DBConfig{DSN: dsn, Type: dbType, MigrationsDir: migrationsDir}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(config)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(config)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
