package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/routa-ai/routa/pkg/agenttools"
	"github.com/routa-ai/routa/pkg/config"
	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/llms"
	"github.com/routa-ai/routa/pkg/observability"
	"github.com/routa-ai/routa/pkg/orchestrator"
	"github.com/routa-ai/routa/pkg/textexec"
	"github.com/routa-ai/routa/pkg/workspace"
)

// RunCmd runs one user request through the full plan/craft/verify cycle.
type RunCmd struct {
	Request []string `arg:"" help:"The request to plan and execute."`

	Cwd       string `help:"Working directory exposed to the file tools." default:"." type:"path"`
	Workspace string `help:"Workspace id." default:"default"`
	Parallel  bool   `help:"Run crafters concurrently."`
	Model     string `help:"Override the configured model name."`
	Debug     bool   `help:"Print the orchestrator debug log after the run."`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled: cli.Observe,
	}); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	path, err := cli.configPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	active, err := cfg.ActiveConfig()
	if err != nil {
		return err
	}

	llms.RegisterCopilotProvider()
	executor, err := llms.NewExecutor(ctx, *active)
	if err != nil {
		return err
	}
	defer executor.Close()

	model := c.Model
	if model == "" {
		model = executor.DefaultModel()
	}

	store := coordination.NewMemoryStore()
	bus := coordination.NewEventBus()
	defer bus.Close()

	tools := agenttools.NewToolkitRegistry(agenttools.NewToolkit(store, bus))
	cancels := workspace.NewCancelRegistry()

	orch := orchestrator.New(orchestrator.Config{
		Store: store,
		Bus:   bus,
		Runner: &orchestrator.LoopRunner{
			Executor: executor,
			Model:    model,
			Tools:    textexec.New(c.Cwd, tools),
			Cancels:  cancels,
			Store:    store,
		},
		Cancels:     cancels,
		WorkspaceID: c.Workspace,
		Parallel:    c.Parallel,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Stopping agents...")
		orch.Stop()
	}()

	result := orch.Run(ctx, strings.Join(c.Request, " "))

	fmt.Printf("\nOutcome: %s\n", result.Outcome)
	if result.Verdict != "" {
		fmt.Printf("Verdict: %s\n", result.Verdict)
	}
	if result.Reason != "" {
		fmt.Printf("Reason:  %s\n", result.Reason)
	}
	for _, task := range result.Tasks {
		fmt.Printf("\n## %s [%s]\n", task.Title, task.Status)
		if output := result.CrafterOutputs[task.ID]; output != "" {
			fmt.Println(output)
		}
	}

	if c.Debug {
		fmt.Println("\nDebug log:")
		for _, entry := range orch.DebugEntries() {
			fmt.Println("  " + entry)
		}
	}

	if result.Outcome == orchestrator.OutcomeFailure {
		return fmt.Errorf("run failed: %s", result.Reason)
	}
	return nil
}
