// Package db opens GORM connections for the broker's supported backends.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database types.
const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
)

// Connect opens a GORM connection for the given database type and DSN.
// Driver errors are translated to gorm sentinel errors (gorm.ErrDuplicatedKey
// and friends) so store code can map constraint violations uniformly across
// backends.
func Connect(dbType, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch dbType {
	case TypePostgres:
		dialector = postgres.Open(dsn)
	case TypeMySQL:
		dialector = mysql.Open(dsn)
	case TypeSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %q (expected postgres, mysql, or sqlite)", dbType)
	}

	gormDB, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dbType, err)
	}

	return gormDB, nil
}
