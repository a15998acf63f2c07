package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"apeBeacon/domain"
	"apeBeacon/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// CustomerSource is the backing store behind the cache.
type CustomerSource interface {
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	FindCustomer(ctx context.Context, id string) (domain.Customer, error)
	AddSite(ctx context.Context, customerID, siteDomain string) (domain.CustomerSite, error)
}

// CustomerCache is a read-through cache of customers and their sites. Redis
// failures fall back to the source; they never fail a lookup.
type CustomerCache struct {
	client *redis.Client
	source CustomerSource
	ttl    time.Duration
}

func NewCustomerCache(client *redis.Client, source CustomerSource, ttl time.Duration) *CustomerCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CustomerCache{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

func customerKey(id string) string {
	// key format: "ape:customer:{customer_id}"
	return fmt.Sprintf("ape:customer:%s", id)
}

func (c *CustomerCache) FindCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("context error: %w", err)
	}

	val, err := c.client.Get(ctx, customerKey(id)).Result()
	switch {
	case err == nil:
		var customer domain.Customer
		if err := json.Unmarshal([]byte(val), &customer); err == nil {
			return customer, nil
		}
		logger.Warn("Dropping undecodable cached customer", "customer_id", id)
	case !errors.Is(err, redis.Nil):
		logger.Warn("Customer cache read failed", "customer_id", id, "error", err)
	}

	customer, err := c.source.FindCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	raw, err := json.Marshal(customer)
	if err != nil {
		return customer, nil
	}
	if err := c.client.Set(ctx, customerKey(id), raw, c.ttl).Err(); err != nil {
		logger.Warn("Customer cache write failed", "customer_id", id, "error", err)
	}

	return customer, nil
}

func (c *CustomerCache) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if err := c.source.CreateCustomer(ctx, customer); err != nil {
		return err
	}
	c.Invalidate(ctx, customer.ID)
	return nil
}

func (c *CustomerCache) AddSite(ctx context.Context, customerID, siteDomain string) (domain.CustomerSite, error) {
	site, err := c.source.AddSite(ctx, customerID, siteDomain)
	if err != nil {
		return domain.CustomerSite{}, err
	}
	c.Invalidate(ctx, customerID)
	return site, nil
}

// Invalidate drops the cached entry so the next lookup reads the source.
func (c *CustomerCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, customerKey(id)).Err(); err != nil {
		logger.Warn("Customer cache invalidation failed", "customer_id", id, "error", err)
	}
}
