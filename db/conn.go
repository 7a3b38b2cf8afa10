// Package db opens the application's database and keeps its schema up to date
package db

import (
	"bitwise74/blog/internal/model"
	"bitwise74/blog/pkg/util"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDSN = "database.db"

// New opens the database configured under database.url and migrates it
func New() (*gorm.DB, error) {
	dsn := viper.GetString("database.url")
	if dsn == "" {
		dsn = defaultDSN
	}

	// If running in a docker container don't allow the sqlite file to be created.
	// The host should instead mount it using volumes
	if !isPostgres(dsn) && util.IsRunningInDocker() && !strings.Contains(dsn, ":memory:") {
		if _, err := os.Stat(dsn); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
		}
	}

	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects to Postgres when dsn looks like a Postgres URL or key/value
// string and to a SQLite file otherwise
func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if isPostgres(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	// Every connection to an in-memory SQLite database gets its own empty
	// database, so stick to one
	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle, %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(model.User{}, model.Post{}, model.UsedResetToken{})
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}
