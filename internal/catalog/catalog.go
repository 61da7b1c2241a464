// Package catalog serves the admin panel's model picker: a small,
// TTL-cached list of provider models and their per-million-token pricing.
package catalog

import (
	"sync"
	"time"
)

// TTL is how long a fetched catalog snapshot is served before being
// refreshed, per spec §6's "cached briefly" requirement.
const TTL = time.Hour

// Model describes one selectable provider model for the admin UI.
type Model struct {
	ID               string  `json:"id"`
	DisplayName      string  `json:"display_name"`
	Provider         string  `json:"provider"`
	InputPerMillion  float64 `json:"input_per_million_usd"`
	OutputPerMillion float64 `json:"output_per_million_usd"`
}

// staticCatalog is the compiled-in model list. The Gateway interface
// exposes only Call/Stream, not a provider model-listing operation, so this
// mirrors the teacher's own approach of hand-maintaining a pricing table
// rather than round-tripping to the provider for it (see DESIGN.md).
var staticCatalog = []Model{
	{ID: "claude-opus-4-1-20250805", DisplayName: "Claude Opus 4.1", Provider: "anthropic", InputPerMillion: 15, OutputPerMillion: 75},
	{ID: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4", Provider: "anthropic", InputPerMillion: 3, OutputPerMillion: 15},
	{ID: "claude-haiku-4-20250514", DisplayName: "Claude Haiku 4", Provider: "anthropic", InputPerMillion: 0.8, OutputPerMillion: 4},
	{ID: "anthropic/claude-sonnet-4", DisplayName: "Claude Sonnet 4 (OpenRouter)", Provider: "openrouter", InputPerMillion: 3, OutputPerMillion: 15},
	{ID: "openai/gpt-4.1", DisplayName: "GPT-4.1 (OpenRouter)", Provider: "openrouter", InputPerMillion: 2, OutputPerMillion: 8},
}

// Cache serves staticCatalog, refreshing its fetch timestamp every TTL.
// There is nothing to actually re-fetch today, but the TTL boundary is kept
// so a future provider-backed catalog slots in without changing callers.
type Cache struct {
	mu        sync.Mutex
	fetchedAt time.Time
	data      []Model
}

// NewCache returns an empty, unpopulated cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the current catalog snapshot, refreshing it if the TTL has
// elapsed.
func (c *Cache) Get() []Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data != nil && time.Since(c.fetchedAt) < TTL {
		return c.data
	}
	c.data = staticCatalog
	c.fetchedAt = time.Now()
	return c.data
}
