package domain

import (
	"errors"
	"time"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerExists   = errors.New("customer already exists")
)

// CREATE TABLE customers (
//     customer_id   TEXT PRIMARY KEY,
//     display_name  TEXT NOT NULL,
//     created_at    TIMESTAMPTZ DEFAULT NOW()
// );

type Customer struct {
	ID          string         `gorm:"primaryKey;column:customer_id" json:"id"`
	DisplayName string         `gorm:"column:display_name;not null" json:"display_name"`
	Sites       []CustomerSite `gorm:"foreignKey:CustomerID;references:ID" json:"sites"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// CustomerSite is one domain registered to a customer, stored without scheme.
type CustomerSite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID string    `gorm:"column:customer_id;not null;uniqueIndex:idx_customer_site" json:"customer_id"`
	Domain     string    `gorm:"column:domain;not null;uniqueIndex:idx_customer_site" json:"domain"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CustomerSite) TableName() string {
	return "customer_sites"
}

// Domains returns the registered site domains.
func (c Customer) Domains() []string {
	out := make([]string, 0, len(c.Sites))
	for _, s := range c.Sites {
		out = append(out, s.Domain)
	}
	return out
}
