package history

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Record is one archived terminal job outcome.
type Record struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	JobID       string    `gorm:"index;size:36;not null"`
	DisplayName string    `gorm:"size:255"`
	SizeBytes   int64     `gorm:"default:0"`
	Success     bool      `gorm:"index"`
	Stopped     bool      `gorm:"default:false"`
	Message     string    `gorm:"type:text"`
	OutputRefs  string    `gorm:"type:text"` // newline-separated store keys
	FinishedAt  time.Time `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Storage defines the persistence contract for archived results.
type Storage interface {
	Migrate(ctx context.Context) error
	Insert(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// GormStorage implements Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a GORM-backed history storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Record{})
}

// Insert appends one archived record.
func (s *GormStorage) Insert(ctx context.Context, rec *Record) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// List returns the most recent records, newest first.
func (s *GormStorage) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Order("finished_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Prune deletes records finished before the cutoff and returns the count.
func (s *GormStorage) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("finished_at < ?", olderThan).
		Delete(&Record{})
	return result.RowsAffected, result.Error
}
