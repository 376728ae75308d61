package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRecord is the row behind GormStore. Revision changes on every write.
type DocumentRecord struct {
	Path      string    `gorm:"primaryKey;size:255"`
	Content   []byte    `gorm:"not null"`
	Revision  string    `gorm:"size:64;not null"`
	Message   string    `gorm:"size:255"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DocumentRecord) TableName() string {
	return "documents"
}

// GormStore keeps documents in a SQL table and enforces the revision
// precondition with a conditional UPDATE.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, path string) (*Document, error) {
	var record DocumentRecord
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &Document{Content: record.Content, Revision: record.Revision}, nil
}

func (s *GormStore) Put(ctx context.Context, path string, content []byte, revision string, message string) (string, error) {
	newRevision := uuid.NewString()
	db := s.db.WithContext(ctx)

	if revision == "" {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&DocumentRecord{
			Path:      path,
			Content:   content,
			Revision:  newRevision,
			Message:   message,
			UpdatedAt: time.Now(),
		})
		if result.Error != nil {
			return "", fmt.Errorf("create %s: %w", path, result.Error)
		}
		if result.RowsAffected == 0 {
			return "", fmt.Errorf("create %s: %w", path, ErrConflict)
		}
		return newRevision, nil
	}

	result := db.Model(&DocumentRecord{}).
		Where("path = ? AND revision = ?", path, revision).
		Updates(map[string]any{
			"content":    content,
			"revision":   newRevision,
			"message":    message,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return "", fmt.Errorf("update %s: %w", path, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&DocumentRecord{}).Where("path = ?", path).Count(&count).Error; err != nil {
			return "", fmt.Errorf("update %s: checking existence: %w", path, err)
		}
		if count == 0 {
			return "", fmt.Errorf("update %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("update %s: %w", path, ErrConflict)
	}
	return newRevision, nil
}
