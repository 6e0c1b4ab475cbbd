package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"equity_bot/internal/models"
)

// tradeRecordRow is the persisted shape of one executed trade.
type tradeRecordRow struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp int64   `gorm:"column:timestamp;index;not null"`
	Symbol    string  `gorm:"column:symbol;not null"`
	Action    string  `gorm:"column:action;not null"`
	Quantity  int64   `gorm:"column:quantity;not null"`
	Price     float64 `gorm:"column:price;not null"`
	OrderID   string  `gorm:"column:order_id"`
}

func (tradeRecordRow) TableName() string { return "trade_records" }

// Ledger is the durable, append-only trade history. There are no update or
// delete paths; concurrent appends are serialized by the single-writer
// SQLite database.
type Ledger struct {
	db *gorm.DB
}

// Open opens (or creates) the ledger database at path and migrates the
// trade_records table.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create dir %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&tradeRecordRow{}); err != nil {
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ledger: sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return &Ledger{db: db}, nil
}

// Append writes one executed trade. Records with a non-trade action or a
// non-positive quantity or price are rejected before touching the database.
func (l *Ledger) Append(ctx context.Context, rec models.TradeRecord) error {
	if rec.Action != models.ActionBuy && rec.Action != models.ActionSell {
		return fmt.Errorf("ledger: invalid action %q", rec.Action)
	}
	if rec.Quantity <= 0 {
		return fmt.Errorf("ledger: invalid quantity %d", rec.Quantity)
	}
	if rec.Price <= 0 {
		return fmt.Errorf("ledger: invalid price %f", rec.Price)
	}
	if rec.Symbol == "" {
		return fmt.Errorf("ledger: empty symbol")
	}

	row := tradeRecordRow{
		Timestamp: rec.Timestamp.UnixMilli(),
		Symbol:    rec.Symbol,
		Action:    string(rec.Action),
		Quantity:  rec.Quantity,
		Price:     rec.Price,
		OrderID:   rec.OrderID,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("ledger: append: %w", err)
	}
	return nil
}

// Recent returns up to n trades, newest first. Non-positive n falls back to
// the last 50.
func (l *Ledger) Recent(ctx context.Context, n int) ([]models.TradeRecord, error) {
	if n <= 0 {
		n = 50
	}

	var rows []tradeRecordRow
	err := l.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: recent: %w", err)
	}

	records := make([]models.TradeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.TradeRecord{
			Timestamp: time.UnixMilli(row.Timestamp).UTC(),
			Symbol:    row.Symbol,
			Action:    models.ActionType(row.Action),
			Quantity:  row.Quantity,
			Price:     row.Price,
			OrderID:   row.OrderID,
		})
	}
	return records, nil
}

// Count returns the total number of recorded trades.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&tradeRecordRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return count, nil
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
