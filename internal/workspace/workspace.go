// Package workspace confines every file-reading/writing tool to a single
// process-level directory, as required by §3's Workspace path and §8's
// path-confinement invariant.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the confinement root for sandboxed code execution and
// document tools.
type Workspace struct {
	root string
}

// New resolves root to an absolute path and ensures it exists.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolving root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: creating root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the confinement root's absolute path.
func (w *Workspace) Root() string { return w.root }

// ErrEscapesRoot is returned by Confine when rel resolves outside the
// workspace root.
var ErrEscapesRoot = fmt.Errorf("workspace: path escapes confinement root")

// Confine resolves rel against the workspace root and rejects any result
// whose real path would fall outside it. The lexical check catches ".."
// segments; the deepest existing ancestor is then resolved through
// EvalSymlinks and re-checked, so a symlink inside the root cannot lead
// outside it even when the final path does not exist yet.
func (w *Workspace) Confine(rel string) (string, error) {
	joined := filepath.Join(w.root, rel)
	if !isDescendant(w.root, joined) {
		return "", ErrEscapesRoot
	}

	root, err := filepath.EvalSymlinks(w.root)
	if err != nil {
		root = w.root
	}
	existing := joined
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			if !isDescendant(root, resolved) {
				return "", ErrEscapesRoot
			}
			if existing == joined {
				return resolved, nil
			}
			return joined, nil
		}
		if existing == filepath.Dir(existing) {
			return joined, nil
		}
		existing = filepath.Dir(existing)
	}
}

func isDescendant(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != ".."
}
