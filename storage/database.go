package storage

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"feedback-triage/models"
)

// dialector は DATABASE_URL があれば postgres、なければ sqlite ファイルを使う
func dialector(databaseURL, sqlitePath string) (gorm.Dialector, string) {
	if databaseURL != "" {
		return postgres.Open(databaseURL), "postgres"
	}
	return sqlite.Open(sqlitePath), "sqlite"
}

// Open は DB に接続してマイグレーションまで行う
func Open(databaseURL, sqlitePath string) (*gorm.DB, error) {
	dial, driver := dialector(databaseURL, sqlitePath)

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite は同時書き込みできないので1接続に固定する
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("database ready", slog.String("driver", driver))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Feedback{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
