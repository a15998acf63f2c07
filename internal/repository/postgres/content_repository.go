package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apeBeacon/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

// SaveContent inserts or replaces a candidate by id.
func (r *ContentRepository) SaveContent(ctx context.Context, c *domain.Content) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Customer{}).Where("customer_id = ?", c.CustomerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrCustomerNotFound
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"slot", "body", "styles", "score"}),
		}).Create(c).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return err
		}
		return fmt.Errorf("failed to save content: %w", err)
	}

	return nil
}

func (r *ContentRepository) FindContent(ctx context.Context, customerID string, slots []string) ([]domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).Where("customer_id = ?", customerID)
	if len(slots) > 0 {
		query = query.Where("(slot = '' OR slot IN ?)", slots)
	} else {
		query = query.Where("slot = ''")
	}

	items := []domain.Content{}
	if err := query.Order("content_id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}

	return items, nil
}
