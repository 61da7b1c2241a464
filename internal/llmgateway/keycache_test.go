package llmgateway

import (
	"errors"
	"testing"
)

func TestKeyCacheCachesUntilForceRefresh(t *testing.T) {
	calls := 0
	c := NewKeyCache(func() (string, error) {
		calls++
		return "key-v1", nil
	})

	k1, err := c.Key()
	if err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	k2, err := c.Key()
	if err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	if k1 != "key-v1" || k2 != "key-v1" {
		t.Fatalf("unexpected keys: %q %q", k1, k2)
	}
	if calls != 1 {
		t.Fatalf("resolveFn called %d times, want 1 (cached)", calls)
	}
}

func TestKeyCacheForceRefreshReResolves(t *testing.T) {
	calls := 0
	c := NewKeyCache(func() (string, error) {
		calls++
		return "key", nil
	})
	if _, err := c.Key(); err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	if _, err := c.ForceRefresh(); err != nil {
		t.Fatalf("ForceRefresh() error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("resolveFn called %d times, want 2", calls)
	}
}

func TestKeyCachePropagatesResolveError(t *testing.T) {
	wantErr := errors.New("no key configured")
	c := NewKeyCache(func() (string, error) { return "", wantErr })
	if _, err := c.Key(); !errors.Is(err, wantErr) {
		t.Fatalf("Key() error = %v, want %v", err, wantErr)
	}
}
