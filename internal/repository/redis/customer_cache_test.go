package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"apeBeacon/domain"
	"apeBeacon/internal/repository/memory"

	"github.com/redis/go-redis/v9"
)

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCustomerCacheFallsBackToSource(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	cache := NewCustomerCache(unreachableClient(t), store, time.Minute)

	if err := cache.CreateCustomer(ctx, &domain.Customer{ID: "1", DisplayName: "Foo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := cache.AddSite(ctx, "1", "foo.com"); err != nil {
		t.Fatalf("add site: %v", err)
	}

	c, err := cache.FindCustomer(ctx, "1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(c.Sites) != 1 || c.Sites[0].Domain != "foo.com" {
		t.Errorf("unexpected customer %+v", c)
	}

	if _, err := cache.FindCustomer(ctx, "missing"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected not found from source, got %v", err)
	}
}

func TestCustomerKey(t *testing.T) {
	if got := customerKey("123456"); got != "ape:customer:123456" {
		t.Errorf("unexpected key %q", got)
	}
}
