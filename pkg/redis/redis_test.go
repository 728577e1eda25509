package redis

import (
	"context"
	"testing"
	"time"

	"github.com/jose/sera/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "sera")

	// When Redis is disabled, cache operations should be no-ops
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "readiness:latest", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(ctx, "readiness:latest", "cached", 5*time.Minute); err != nil {
		t.Errorf("Set() error = %v", err)
	}

	if err := cache.Delete(ctx, "readiness:latest"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestClient_CloseDisabled(t *testing.T) {
	client := &Client{enabled: false}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}
