package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/routa-ai/routa/pkg/a2a"
	"github.com/routa-ai/routa/pkg/agenttools"
	"github.com/routa-ai/routa/pkg/config"
	"github.com/routa-ai/routa/pkg/config/provider"
	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/logger"
	"github.com/routa-ai/routa/pkg/observability"
)

// ServeCmd starts the agent-to-agent HTTP server.
type ServeCmd struct {
	Host  string `help:"Host to bind." default:"127.0.0.1"`
	Port  int    `help:"Port to listen on." default:"8080"`
	Watch bool   `help:"Watch the model config file and re-validate on change."`
}

// watchConfig re-validates the model config whenever the file changes.
func watchConfig(ctx context.Context, path string) error {
	p, err := provider.NewFileProvider(path)
	if err != nil {
		return err
	}

	changes, err := p.Watch(ctx)
	if err != nil {
		p.Close()
		return err
	}

	go func() {
		defer p.Close()
		for range changes {
			if _, err := config.Load(path); err != nil {
				slog.Warn("config change is invalid, keeping previous", "path", path, "error", err)
				continue
			}
			slog.Info("config reloaded", "path", path)
		}
	}()
	return nil
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled: cli.Observe,
	}); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	log := logger.GetLogger()

	store := coordination.NewMemoryStore()
	bus := coordination.NewEventBus()
	defer bus.Close()

	if c.Watch {
		path, err := cli.configPath()
		if err != nil {
			return err
		}
		if err := watchConfig(ctx, path); err != nil {
			slog.Warn("config watch unavailable", "error", err)
		}
	}

	tools := agenttools.NewToolkitRegistry(agenttools.NewToolkit(store, bus))
	dispatcher := a2a.NewDispatcher(store, tools)

	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
	srv := a2a.NewServer(addr, dispatcher, store, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		cancel()
	}()

	fmt.Printf("\nRouta server ready\n")
	fmt.Printf("   Messages:  http://%s/a2a/messages\n", addr)
	fmt.Printf("   Health:    http://%s/healthz\n", addr)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start()
}
