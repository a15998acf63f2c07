package main

import (
	"context"
	"fmt"

	"apeBeacon/business/admin"
	"apeBeacon/business/beacon"
	"apeBeacon/business/content"
	"apeBeacon/domain"
	"apeBeacon/internal/repository/memory"
	psqlRepo "apeBeacon/internal/repository/postgres"
	redisRepo "apeBeacon/internal/repository/redis"
	"apeBeacon/internal/repository/sqlite"
	"apeBeacon/pkg/config"
	"apeBeacon/pkg/database"
	redisdb "apeBeacon/pkg/database/redis"
	"apeBeacon/pkg/logger"
)

type contentStore interface {
	admin.ContentStore
	content.ContentRepository
}

type storage struct {
	customers admin.CustomerStore
	visitors  beacon.VisitorRepository
	content   contentStore
	closers   []func() error
}

func (s *storage) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}
}

// openStorage picks the backend named by STORE_DRIVER and puts the optional
// redis customer cache in front of it.
func openStorage(cfg *config.Config) (*storage, error) {
	st := &storage{}

	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return nil, err
		}
		if err := psqlRepo.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, sqlDB.Close)
		st.customers = psqlRepo.NewCustomerRepository(db)
		st.visitors = psqlRepo.NewVisitorRepository(db)
		st.content = psqlRepo.NewContentRepository(db)

	case config.StoreSQLite:
		s, err := sqlite.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, s.Close)
		st.customers, st.visitors, st.content = s, s, s

	default:
		s := memory.NewStore()
		if err := seedDemoCustomer(s); err != nil {
			return nil, err
		}
		st.customers, st.visitors, st.content = s, s, s
	}

	if cfg.Redis.Enabled {
		client, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, func() error { return redisdb.CloseRedisClient(client) })
		st.customers = redisRepo.NewCustomerCache(client, st.customers, cfg.Redis.CustomerTTL)
		logger.Info("Redis customer cache enabled", "ttl", cfg.Redis.CustomerTTL)
	}

	logger.Info("Storage ready", "driver", cfg.Store.Driver)
	return st, nil
}

// seedDemoCustomer registers the example account so a fresh in-memory server
// answers the loader snippet out of the box.
func seedDemoCustomer(s *memory.Store) error {
	return s.CreateCustomer(context.Background(), &domain.Customer{
		ID:          "123456",
		DisplayName: "Demo",
		Sites:       []domain.CustomerSite{{Domain: "localhost"}},
	})
}
