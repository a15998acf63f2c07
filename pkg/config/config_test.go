package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("BEACON_CONTENT_SELECTOR", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Beacon.DefaultCallback != "_ape.callback" {
		t.Errorf("expected default callback _ape.callback, got %q", cfg.Beacon.DefaultCallback)
	}
	if cfg.Beacon.PlaceholderPrefix != "ape" {
		t.Errorf("expected default prefix ape, got %q", cfg.Beacon.PlaceholderPrefix)
	}
	if cfg.Store.Driver != StoreMemory {
		t.Errorf("expected memory store, got %q", cfg.Store.Driver)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Server.RequestTimeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "STORE_DRIVER", "mongo"},
		{"unknown selector", "BEACON_CONTENT_SELECTOR", "random"},
		{"bad duration", "SERVER_REQUEST_TIMEOUT", "soon"},
		{"bad redis db", "REDIS_DB", "zero"},
		{"bad weight", "BEACON_WEIGHT_OFFLINE", "heavy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestLoadRequiresSecretForAdmin(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing jwt secret error")
	}
}

func TestLoadPostgresRequiresPassword(t *testing.T) {
	t.Setenv("STORE_DRIVER", StorePostgres)
	t.Setenv("DB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing database password error")
	}
}
