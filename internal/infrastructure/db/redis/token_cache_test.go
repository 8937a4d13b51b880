package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/mardens/authgate/internal/core/domain"
)

func TestTokenCache_KeyDoesNotContainToken(t *testing.T) {
	c := NewTokenCache(nil)
	key := c.key("super-secret-token")

	if !strings.HasPrefix(key, tokenKeyPrefix) {
		t.Fatalf("unexpected key prefix: %s", key)
	}
	if strings.Contains(key, "super-secret-token") {
		t.Fatalf("raw token leaked into key: %s", key)
	}
	if key != c.key("super-secret-token") {
		t.Fatalf("key must be deterministic")
	}
}

func TestTokenCache_SetWithoutTTLIsNoop(t *testing.T) {
	c := NewTokenCache(nil)
	if err := c.Set(context.Background(), "tok", &domain.User{Username: "alice"}, 0); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
