package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// kvRecord is one row of the SQLite key-value table.
type kvRecord struct {
	Name      string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (kvRecord) TableName() string {
	return "kv"
}

// SQLGateway stores values in a SQLite table through GORM.
type SQLGateway struct {
	db *gorm.DB
}

// OpenSQLGateway opens (or creates) the SQLite database at dsn and migrates
// the key-value table. Use ":memory:" for a throwaway database.
func OpenSQLGateway(dsn string) (*SQLGateway, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if dsn == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return &SQLGateway{db: db}, nil
}

// Read implements Gateway.
func (g *SQLGateway) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var rec kvRecord
	err := g.db.WithContext(ctx).Where("name = ?", key).First(&rec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return rec.Value, true, nil
}

// Write implements Gateway.
func (g *SQLGateway) Write(ctx context.Context, key string, data []byte) error {
	rec := kvRecord{Name: key, Value: data, UpdatedAt: time.Now()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection.
func (g *SQLGateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	return sqlDB.Close()
}
