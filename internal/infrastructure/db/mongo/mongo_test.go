package mongo

import (
	"context"
	"testing"
	"time"
)

func TestConfigClientOptions(t *testing.T) {
	opts, timeout, err := Config{URI: "mongodb://localhost:27017", Database: "authgate", Workers: 4}.clientOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeout != defaultTimeout {
		t.Fatalf("expected default timeout, got %v", timeout)
	}
	if opts.AppName == nil || *opts.AppName != appName {
		t.Fatalf("expected app name %q", appName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 5 {
		t.Fatalf("expected pool of workers+1, got %v", opts.MaxPoolSize)
	}

	_, timeout, _ = Config{URI: "mongodb://localhost:27017", Database: "authgate", Timeout: time.Second}.clientOptions()
	if timeout != time.Second {
		t.Fatalf("expected 1s timeout, got %v", timeout)
	}
}

func TestConnect_InvalidConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"no uri":      {Database: "authgate"},
		"no database": {URI: "mongodb://localhost:27017"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Connect(context.Background(), cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
