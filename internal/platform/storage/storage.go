package storage

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	platformerrors "mealvision-server/internal/platform/errors"
)

// Open connects the SQLite database at dsn and migrates the schema. The
// parent directory is created for file-backed databases; ":memory:" is left
// untouched for tests.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, "storage.open", "database dsn is required")
	}

	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.open", "create database directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.open", "open database", err)
	}

	if err := db.AutoMigrate(&User{}, &MealRecord{}); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "storage.open", "migrate schema", err)
	}

	return db, nil
}
