package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaykit/conduit/internal/agent"
	"github.com/relaykit/conduit/internal/blobstore"
	"github.com/relaykit/conduit/internal/catalog"
	"github.com/relaykit/conduit/internal/config"
	"github.com/relaykit/conduit/internal/httpapi"
	"github.com/relaykit/conduit/internal/llmgateway"
	"github.com/relaykit/conduit/internal/registry"
	"github.com/relaykit/conduit/internal/tools/browser"
	"github.com/relaykit/conduit/internal/tools/documents"
	"github.com/relaykit/conduit/internal/tools/fileops"
	"github.com/relaykit/conduit/internal/tools/sandbox"
	"github.com/relaykit/conduit/internal/tools/websearch"
	"github.com/relaykit/conduit/internal/workspace"
)

func buildServeCmd() *cobra.Command {
	var (
		addr         string
		overridePath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Conduit orchestration server",
		Long: `Start the Conduit HTTP server: the chat Request Edge, the Builder Flow
edge, admin endpoints, and a Prometheus /metrics endpoint.

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, overridePath)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "address to listen on")
	cmd.Flags().StringVar(&overridePath, "agent-overrides", "./agent-overrides.json", "path to the agent registry's persisted override document")

	return cmd
}

func runServe(ctx context.Context, addr, overridePath string) error {
	cfg := config.Load(os.Getenv)

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	gateway, err := llmgateway.New(cfg)
	if err != nil {
		return fmt.Errorf("building llm gateway: %w", err)
	}

	defaultModel := cfg.OpenRouterModel
	if cfg.HasAnthropic() {
		defaultModel = "claude-sonnet-4-20250514"
	}
	reg, err := registry.New(overridePath, defaultModel)
	if err != nil {
		return fmt.Errorf("building agent registry: %w", err)
	}

	ws, err := workspace.New(cfg.AgentWorkspace)
	if err != nil {
		return fmt.Errorf("building workspace: %w", err)
	}

	toolRegistry := agent.NewToolRegistry()
	registerTools(toolRegistry, cfg, ws)

	blobHosts := blobHostsFromConfig(cfg)
	antiHalluc := agent.NewAntiHallucination(blobHosts...)

	server := &httpapi.Server{
		Gateway:      gateway,
		Registry:     reg,
		ToolRegistry: toolRegistry,
		AntiHalluc:   antiHalluc,
		Catalog:      catalog.NewCache(),
		Config:       cfg,
		Logger:       logger,
		StartedAt:    time.Now(),
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", "error", err)
	}

	logger.Info("conduit server stopped")
	return nil
}

// registerTools builds and registers every tool named in SPEC_FULL.md's
// supervisor-reachable and specialist-reachable tool set.
func registerTools(reg *agent.ToolRegistry, cfg config.Config, ws *workspace.Workspace) {
	reg.Register(websearch.NewSearchTool(cfg.TavilyAPIKey, cfg.BraveSearchAPIKey, cfg.WebTimeout))
	reg.Register(websearch.NewFetchTool(cfg.WebTimeout, cfg.WebMaxSize, cfg.WebMaxChars))
	reg.Register(browser.New(cfg.FirecrawlAPIKey, cfg.WebTimeout))
	reg.Register(sandbox.New(cfg.AllowCodeExec, cfg.CodeTimeout, ws))

	store, err := buildBlobStore(cfg)
	if err != nil {
		slog.Warn("blob store unavailable, file tools will fail at call time", "error", err)
	}
	if store != nil {
		reg.Register(documents.NewPDFTool(store))
		reg.Register(documents.NewExcelTool(store))
		reg.Register(fileops.NewModifyExcelTool(store, cfg.WebTimeout))
		reg.Register(fileops.NewModifyPDFTool(store, cfg.WebTimeout))
		reg.Register(fileops.NewModifyPPTXTool(store, cfg.WebTimeout))
	}
	reg.Register(fileops.NewFetchContentTool(cfg.WebTimeout, cfg.WebMaxSize, cfg.WebMaxChars))
}

func buildBlobStore(cfg config.Config) (blobstore.Store, error) {
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL not configured")
	}
	endpoint := cfg.SupabaseURL + "/storage/v1/s3"
	publicBase := cfg.SupabaseURL + "/storage/v1/object/public/" + cfg.SupabaseStorageBucket
	return blobstore.NewS3Store(context.Background(), blobstore.Config{
		Bucket:      cfg.SupabaseStorageBucket,
		Endpoint:    endpoint,
		AccessKeyID: cfg.SupabaseKey,
		SecretKey:   cfg.SupabaseKey,
		PublicBase:  publicBase,
	})
}

func blobHostsFromConfig(cfg config.Config) []string {
	if cfg.SupabaseURL == "" {
		return nil
	}
	u, err := url.Parse(cfg.SupabaseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
