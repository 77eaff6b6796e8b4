package cache

import (
	"context"
	"testing"
	"time"

	"medchat/internal/core"
)

func TestLocalCache_SetGetDelete(t *testing.T) {
	c := NewLocalCache(time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}

	profile := &core.Profile{UserID: "user-1", FirstName: "Ada", HealthSummary: "hypertension"}
	if err := c.Set(ctx, profile); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err = c.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.FirstName != "Ada" {
		t.Errorf("Get = %+v, want cached profile", got)
	}

	// Mutating the returned value must not change the cached copy
	got.FirstName = "changed"
	again, _ := c.Get(ctx, "user-1")
	if again.FirstName != "Ada" {
		t.Errorf("cached profile mutated through returned pointer")
	}

	if err := c.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, _ = c.Get(ctx, "user-1")
	if got != nil {
		t.Errorf("expected miss after delete, got %+v", got)
	}
}

func TestLocalCache_Expiry(t *testing.T) {
	c := NewLocalCache(10 * time.Millisecond)
	ctx := context.Background()

	if err := c.Set(ctx, &core.Profile{UserID: "user-1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	got, err := c.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired entry to miss, got %+v", got)
	}
}

func TestNew_UnknownType(t *testing.T) {
	if _, err := New(Config{Type: "memcached"}); err == nil {
		t.Error("expected error for unknown cache type")
	}
}

func TestNew_DefaultsToLocal(t *testing.T) {
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()
	if _, ok := c.(*LocalCache); !ok {
		t.Errorf("expected local cache by default, got %T", c)
	}
}
