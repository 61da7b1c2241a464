package registry

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/relaykit/conduit/pkg/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "agents.json"), "default-model")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r
}

func TestGetModelFallsBackToDefault(t *testing.T) {
	r := newTestRegistry(t)
	if got := r.GetModel(AgentWebSearch); got != "default-model" {
		t.Fatalf("GetModel() = %q, want default-model", got)
	}
}

func TestUpdateAgentThenGetReflectsPatch(t *testing.T) {
	r := newTestRegistry(t)
	newModel := "gpt-4o"
	patch := models.Patch{ModelID: &newModel}

	updated, err := r.UpdateAgent(AgentWebSearch, patch)
	if err != nil {
		t.Fatalf("UpdateAgent() error: %v", err)
	}
	if updated.ModelID != newModel {
		t.Fatalf("UpdateAgent() ModelID = %q, want %q", updated.ModelID, newModel)
	}

	got, ok := r.Get(AgentWebSearch)
	if !ok || got.ModelID != newModel {
		t.Fatalf("Get() after Update = %+v, ok=%v", got, ok)
	}
}

func TestUpdateAgentPatchIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	newModel := "gpt-4o"
	patch := models.Patch{ModelID: &newModel}

	first, err := r.UpdateAgent(AgentWebSearch, patch)
	if err != nil {
		t.Fatalf("UpdateAgent() error: %v", err)
	}
	second, err := r.UpdateAgent(AgentWebSearch, patch)
	if err != nil {
		t.Fatalf("UpdateAgent() error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("re-applying the same patch is not a no-op (-first +second):\n%s", diff)
	}
}

func TestResetRestoresCompiledDefault(t *testing.T) {
	r := newTestRegistry(t)
	newModel := "gpt-4o"
	if _, err := r.UpdateAgent(AgentWebSearch, models.Patch{ModelID: &newModel}); err != nil {
		t.Fatalf("UpdateAgent() error: %v", err)
	}

	restored, err := r.Reset(AgentWebSearch)
	if err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if restored.ModelID != "default-model" {
		t.Fatalf("Reset() ModelID = %q, want default-model", restored.ModelID)
	}
}

func TestNewLoadsPersistedOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.json")

	r1, err := New(path, "default-model")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	newModel := "gpt-4o"
	if _, err := r1.UpdateAgent(AgentWebSearch, models.Patch{ModelID: &newModel}); err != nil {
		t.Fatalf("UpdateAgent() error: %v", err)
	}

	r2, err := New(path, "default-model")
	if err != nil {
		t.Fatalf("New() (reload) error: %v", err)
	}
	if got := r2.GetModel(AgentWebSearch); got != newModel {
		t.Fatalf("GetModel() after reload = %q, want %q", got, newModel)
	}
	want, _ := r1.Get(AgentWebSearch)
	got, _ := r2.Get(AgentWebSearch)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reloaded config differs from persisted (-want +got):\n%s", diff)
	}
}
