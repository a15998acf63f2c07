package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apeBeacon/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VisitorRepository struct {
	DB *gorm.DB
}

func NewVisitorRepository(db *gorm.DB) *VisitorRepository {
	return &VisitorRepository{DB: db}
}

func (r *VisitorRepository) FindOrCreateVisitor(ctx context.Context, customerID, visitorID string) (domain.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Visitor{}, fmt.Errorf("context error: %w", err)
	}

	now := time.Now().UTC()
	v := domain.Visitor{
		ID:          visitorID,
		CustomerID:  customerID,
		Data:        datatypes.JSONMap{},
		FirstSeenAt: now,
		LastSeenAt:  now,
	}

	db := r.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&v).Error; err != nil {
		return domain.Visitor{}, fmt.Errorf("failed to upsert visitor: %w", err)
	}

	var stored domain.Visitor
	if err := db.First(&stored, "customer_id = ? AND visitor_id = ?", customerID, visitorID).Error; err != nil {
		return domain.Visitor{}, fmt.Errorf("failed to query visitor: %w", err)
	}

	return stored, nil
}

func (r *VisitorRepository) FindVisitor(ctx context.Context, customerID, visitorID string) (domain.Visitor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Visitor{}, fmt.Errorf("context error: %w", err)
	}

	var v domain.Visitor
	err := r.DB.WithContext(ctx).First(&v, "customer_id = ? AND visitor_id = ?", customerID, visitorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Visitor{}, domain.ErrVisitorNotFound
	}
	if err != nil {
		return domain.Visitor{}, fmt.Errorf("failed to query visitor: %w", err)
	}

	return v, nil
}

// RecordVisitorEvent appends the event and folds it into the visitor row in
// one transaction.
func (r *VisitorRepository) RecordVisitorEvent(ctx context.Context, visitor domain.Visitor, req domain.BeaconRequest) (domain.VisitorEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.VisitorEvent{}, fmt.Errorf("context error: %w", err)
	}

	now := time.Now().UTC()
	ev := domain.NewVisitorEvent(visitor, req)
	ev.ID = uuid.NewString()
	ev.CreatedAt = now

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}

		res := tx.Model(&domain.Visitor{}).
			Where("customer_id = ? AND visitor_id = ?", visitor.CustomerID, visitor.ID).
			Updates(map[string]interface{}{
				"event_count":  gorm.Expr("event_count + 1"),
				"last_seen_at": now,
				"data":         ev.Payload,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrVisitorNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrVisitorNotFound) {
			return domain.VisitorEvent{}, err
		}
		return domain.VisitorEvent{}, fmt.Errorf("failed to record visitor event: %w", err)
	}

	return ev, nil
}
