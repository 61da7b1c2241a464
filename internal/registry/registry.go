// Package registry implements the Agent Registry: an in-memory table of
// AgentConfig records layered over compiled defaults, a persisted override
// document, and an administrative write path.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/relaykit/conduit/pkg/models"
)

// Registry holds the process-wide agent configuration table. Reads are
// frequent and take a shared RWMutex read lock; writes are rare and
// serialized, matching the teacher's concurrency posture for shared
// process-global state.
type Registry struct {
	mu             sync.RWMutex
	agents         map[string]models.AgentConfig
	overridePath   string
	defaultModelID string
}

// New builds a Registry from compiled defaults overlaid with the override
// document at overridePath, if it exists. A missing override document is
// not an error — it simply means no overrides have been persisted yet.
func New(overridePath, defaultModelID string) (*Registry, error) {
	r := &Registry{
		agents:         compiledDefaults(defaultModelID),
		overridePath:   overridePath,
		defaultModelID: defaultModelID,
	}
	if err := r.loadOverrides(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) loadOverrides() error {
	data, err := os.ReadFile(r.overridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("registry: reading override document: %w", err)
	}

	var overrides map[string]models.AgentConfig
	if err := json.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("registry: decoding override document: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cfg := range overrides {
		if _, ok := r.agents[id]; ok {
			r.agents[id] = cfg
		}
	}
	return nil
}

// GetPrompt returns the system prompt for agentID.
func (r *Registry) GetPrompt(agentID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.agents[agentID]
	return cfg.SystemPrompt, ok
}

// GetModel returns the model id for agentID, falling back to the process
// default model when the agent has none configured.
func (r *Registry) GetModel(agentID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.agents[agentID]
	if !ok || cfg.ModelID == "" {
		return r.defaultModelID
	}
	return cfg.ModelID
}

// GetTools returns the tool schema list agentID may emit.
func (r *Registry) GetTools(agentID string) []models.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[agentID].Tools
}

// Get returns the full config for agentID.
func (r *Registry) Get(agentID string) (models.AgentConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.agents[agentID]
	return cfg, ok
}

// All returns a snapshot of every configured agent, for the admin catalog
// endpoint.
func (r *Registry) All() map[string]models.AgentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]models.AgentConfig, len(r.agents))
	for k, v := range r.agents {
		out[k] = v
	}
	return out
}

// UpdateAgent applies patch to agentID's entry and atomically re-serializes
// the override document. Re-applying the same patch twice is a no-op on the
// resulting config (Patch.Apply is idempotent).
func (r *Registry) UpdateAgent(agentID string, patch models.Patch) (models.AgentConfig, error) {
	r.mu.Lock()
	cfg, ok := r.agents[agentID]
	if !ok {
		r.mu.Unlock()
		return models.AgentConfig{}, fmt.Errorf("registry: unknown agent %q", agentID)
	}
	cfg = patch.Apply(cfg)
	r.agents[agentID] = cfg
	snapshot := make(map[string]models.AgentConfig, len(r.agents))
	for k, v := range r.agents {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if err := r.persist(snapshot); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Reset restores agentID to its compiled default and persists the whole
// table, so the override document then holds the compiled default for
// agentID.
func (r *Registry) Reset(agentID string) (models.AgentConfig, error) {
	defaults := compiledDefaults(r.defaultModelID)
	def, ok := defaults[agentID]
	if !ok {
		return models.AgentConfig{}, fmt.Errorf("registry: unknown agent %q", agentID)
	}

	r.mu.Lock()
	r.agents[agentID] = def
	snapshot := make(map[string]models.AgentConfig, len(r.agents))
	for k, v := range r.agents {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if err := r.persist(snapshot); err != nil {
		return def, err
	}
	return def, nil
}

func (r *Registry) persist(snapshot map[string]models.AgentConfig) error {
	if r.overridePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encoding override document: %w", err)
	}
	tmp := r.overridePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("registry: writing override document: %w", err)
	}
	return os.Rename(tmp, r.overridePath)
}
