package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apeBeacon/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository struct {
	DB *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Create(customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return domain.ErrCustomerExists
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

func (r *CustomerRepository) FindCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("context error: %w", err)
	}

	var customer domain.Customer
	err := r.DB.WithContext(ctx).
		Preload("Sites", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&customer, "customer_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("failed to query customer: %w", err)
	}

	return customer, nil
}

// AddSite is idempotent per (customer, domain).
func (r *CustomerRepository) AddSite(ctx context.Context, customerID, siteDomain string) (domain.CustomerSite, error) {
	if err := ctx.Err(); err != nil {
		return domain.CustomerSite{}, fmt.Errorf("context error: %w", err)
	}

	var site domain.CustomerSite
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Customer{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrCustomerNotFound
		}

		site = domain.CustomerSite{CustomerID: customerID, Domain: siteDomain}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&site).Error; err != nil {
			return err
		}

		return tx.First(&site, "customer_id = ? AND domain = ?", customerID, siteDomain).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return domain.CustomerSite{}, err
		}
		return domain.CustomerSite{}, fmt.Errorf("failed to add site: %w", err)
	}

	return site, nil
}

func isUniqueViolation(err error) bool {
	// SQLSTATE 23505 from pgx
	return strings.Contains(err.Error(), "23505")
}
