// Command ragcore assembles retrieval-augmented context for a workspace: it
// transforms raw input into search queries, retrieves matching knowledge-base
// chunks from PostgreSQL, re-ranks them, and prints the assembled context
// block to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/doclinea/ragcore/internal/config"
	"github.com/doclinea/ragcore/internal/observe"
	"github.com/doclinea/ragcore/internal/orchestrator"
	"github.com/doclinea/ragcore/internal/rag"
	"github.com/doclinea/ragcore/pkg/provider"
	"github.com/doclinea/ragcore/pkg/provider/aiclient"
	vspostgres "github.com/doclinea/ragcore/pkg/vectorsearch/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	workspace := flag.String("workspace", "", "workspace id to retrieve context for")
	project := flag.String("project", "", "optional project id or name to scope retrieval")
	focus := flag.String("focus", "", "optional focus topic for query generation")
	notes := flag.String("notes", "", "optional free-form notes for query generation")
	input := flag.String("input", "", "raw input text; reads stdin when empty")
	listProviders := flag.Bool("list-providers", false, "print the provider registry and exit")
	flag.Parse()

	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Environment-only operation is fully supported.
			cfg = &config.Config{}
		} else {
			fmt.Fprintf(os.Stderr, "ragcore: %v\n", err)
			return 1
		}
	}
	config.ApplyEnv(cfg, os.Getenv)

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.LogLevel))

	// ── Provider resolution ───────────────────────────────────────────────────
	resolver := provider.NewResolver(cfg.Credential, cfg.ProviderDefaults())

	if *listProviders {
		printProviders(resolver)
		return 0
	}

	if *workspace == "" {
		fmt.Fprintln(os.Stderr, "ragcore: -workspace is required")
		return 1
	}

	rawInput := *input
	if rawInput == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ragcore: read stdin: %v\n", err)
			return 1
		}
		rawInput = string(data)
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "ragcore"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Vector store ──────────────────────────────────────────────────────────
	if cfg.VectorStore.PostgresDSN == "" {
		fmt.Fprintln(os.Stderr, "ragcore: vector_store.postgres_dsn is required for retrieval")
		return 1
	}
	dims := cfg.VectorStore.EmbeddingDimensions
	if dims <= 0 {
		dims = 1536
	}
	store, err := vspostgres.NewStore(ctx, cfg.VectorStore.PostgresDSN, dims)
	if err != nil {
		slog.Error("failed to connect vector store", "err", err)
		return 1
	}
	defer store.Close()

	// ── Pipeline wiring ───────────────────────────────────────────────────────
	orch := orchestrator.New(resolver, aiclient.NewCache(), cfg.Providers.Text,
		orchestrator.WithMetrics(metrics))
	engine := rag.NewEngine(orch, store, cfg.Retrieval, rag.WithMetrics(metrics))

	slog.Info("ragcore starting",
		"workspace", *workspace,
		"project", *project,
		"text_primary", cfg.Providers.Text.Primary,
		"text_fallback", cfg.Providers.Text.Fallback,
		"embedding", cfg.Providers.Embedding.Primary,
	)

	out, err := engine.BuildContext(ctx, rag.Request{
		RawInput:    rawInput,
		WorkspaceID: *workspace,
		ProjectID:   *project,
		Focus:       *focus,
		Notes:       *notes,
	})
	if err != nil {
		slog.Error("context assembly failed", "err", err)
		return 1
	}

	fmt.Println(out)
	return 0
}

// printProviders lists every registered provider with its models and whether
// a credential is currently available. Secrets are never printed.
func printProviders(resolver *provider.Resolver) {
	for _, info := range resolver.ListProviders() {
		cred := "missing"
		if info.HasCredential {
			cred = "configured"
		}
		caps := make([]string, len(info.Capabilities))
		for i, c := range info.Capabilities {
			caps[i] = string(c)
		}
		fmt.Printf("%-12s %-28s %-18s credential: %s\n",
			info.ID, info.Label, strings.Join(caps, ","), cred)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
