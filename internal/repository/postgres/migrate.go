package postgres

import (
	"apeBeacon/domain"

	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Customer{},
		&domain.CustomerSite{},
		&domain.Visitor{},
		&domain.VisitorEvent{},
		&domain.Content{},
	)
}
