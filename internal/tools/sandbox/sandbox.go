// Package sandbox implements the execute_python tool: a denylist-guarded
// os/exec subprocess run in the process-wide workspace, with no container
// backend, per spec §4.2.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/workspace"
	"github.com/relaykit/conduit/pkg/models"
)

// deniedPatterns catches the most common ways submitted code reaches outside
// the sandbox: process/network/filesystem escapes and shell-out calls.
// This is a denylist, not a sandbox boundary — it narrows the obvious cases,
// it does not guarantee containment.
var deniedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bos\.system\b`),
	regexp.MustCompile(`\bsubprocess\b`),
	regexp.MustCompile(`\bimport\s+socket\b`),
	regexp.MustCompile(`\bimport\s+ctypes\b`),
	regexp.MustCompile(`__import__\s*\(\s*['"]os['"]\s*\)`),
	regexp.MustCompile(`\bshutil\.rmtree\b`),
	regexp.MustCompile(`\bos\.remove\b`),
	regexp.MustCompile(`\bos\.rmdir\b`),
}

// Tool implements agent.Tool for "execute_python".
type Tool struct {
	Allowed bool
	Timeout time.Duration
	WS      *workspace.Workspace
	python  string
}

// New builds an execute_python tool. When allowed is false, Execute always
// returns an error result without spawning a subprocess.
func New(allowed bool, timeout time.Duration, ws *workspace.Workspace) *Tool {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Tool{Allowed: allowed, Timeout: timeout, WS: ws, python: "python3"}
}

func (t *Tool) Name() string { return "execute_python" }
func (t *Tool) Description() string {
	return "Execute a short Python 3 snippet in the shared workspace and return stdout/stderr."
}

func (t *Tool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Params: map[string]models.ToolParam{
			"code": {Type: "string", Description: "Python source to run", Required: true},
		},
		ParamOrder: []string{"code"},
	}
}

type execArgs struct {
	Code string `json:"code"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	if !t.Allowed {
		return &agent.ToolResult{Content: "ERRO: code execution is disabled for this deployment", IsError: true}, nil
	}

	var args execArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("invalid JSON arguments: %w", err))
	}
	if strings.TrimSpace(args.Code) == "" {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorInvalidInput, fmt.Errorf("code must not be empty"))
	}
	if reason := denyReason(args.Code); reason != "" {
		return &agent.ToolResult{Content: "ERRO: code rejected: " + reason, IsError: true}, nil
	}

	workDir := t.WS.Root()
	scriptPath, err := t.WS.Confine(fmt.Sprintf("snippet-%s.py", uuid.NewString()[:8]))
	if err != nil {
		return &agent.ToolResult{Content: "ERRO: access denied: " + err.Error(), IsError: true}, nil
	}
	if err := os.WriteFile(scriptPath, []byte(args.Code), 0o600); err != nil {
		return nil, agent.NewToolFailure(t.Name(), agent.ToolErrorExecution, err)
	}
	defer os.Remove(scriptPath)

	execCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, t.python, filepath.Base(scriptPath))
	cmd.Dir = workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return &agent.ToolResult{Content: "ERRO: execution timed out after " + t.Timeout.String(), IsError: true}, nil
	}

	var b strings.Builder
	if stdout.Len() > 0 {
		b.WriteString("STDOUT:\n")
		b.WriteString(stdout.String())
	}
	if stderr.Len() > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("STDERR:\n")
		b.WriteString(stderr.String())
	}
	if runErr != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "exit error: %v", runErr)
		return &agent.ToolResult{Content: b.String(), IsError: true}, nil
	}
	if b.Len() == 0 {
		b.WriteString("(no output)")
	}
	return &agent.ToolResult{Content: b.String()}, nil
}

// denyReason returns a non-empty human-readable reason when code matches a
// denied pattern, or "" when the code passes the denylist.
func denyReason(code string) string {
	for _, pattern := range deniedPatterns {
		if pattern.MatchString(code) {
			return fmt.Sprintf("matched denied pattern %q", pattern.String())
		}
	}
	return ""
}
