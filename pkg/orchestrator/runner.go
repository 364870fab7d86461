package orchestrator

import (
	"context"

	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/llms"
	"github.com/routa-ai/routa/pkg/textexec"
	"github.com/routa-ai/routa/pkg/workspace"
)

// AgentRunner executes one prompt as one agent and returns its final text.
type AgentRunner interface {
	Run(ctx context.Context, agent *coordination.Agent, prompt string) (string, error)
}

// StreamRunner is an AgentRunner that can also surface output incrementally.
// The orchestrator prefers this path for crafters so per-task subscribers
// see chunks as they arrive instead of one final blob.
type StreamRunner interface {
	AgentRunner
	RunStreaming(ctx context.Context, agent *coordination.Agent, prompt string) <-chan workspace.StreamChunk
}

// RunnerFunc adapts a function to AgentRunner.
type RunnerFunc func(ctx context.Context, agent *coordination.Agent, prompt string) (string, error)

func (f RunnerFunc) Run(ctx context.Context, agent *coordination.Agent, prompt string) (string, error) {
	return f(ctx, agent, prompt)
}

// Per-role system prompts. The planner is told to emit task blocks, the
// crafter to work through the tool protocol, the gate to issue a verdict.
var rolePrompts = map[coordination.AgentRole]string{
	coordination.RoleRouta: "You are ROUTA, the planning agent. Break the user's request into discrete tasks.\n" +
		"Emit each task as an @@@task block:\n\n" +
		"@@@task\n# <title>\n## Objective\n<one paragraph>\n## Scope\n- item\n## Definition of Done\n- item\n## Verification\n- command\n@@@",
	coordination.RoleCrafter: "You are CRAFTER, the implementation agent. Complete the assigned task using the available tools, then reply with a plain-text summary of what you did.",
	coordination.RoleGate: "You are GATE, the verification agent. Review the task definitions and the implementation outputs. Reply with APPROVED or REJECTED followed by your reasoning.",
}

// Per-role iteration budgets for the tool loop.
var roleIterationBudget = map[coordination.AgentRole]int{
	coordination.RoleRouta:   4,
	coordination.RoleCrafter: workspace.DefaultMaxIterations,
	coordination.RoleGate:    4,
}

// LoopRunner runs agents through the workspace tool loop against a shared
// executor.
type LoopRunner struct {
	Executor llms.Executor
	Model    string
	Tools    *textexec.Executor
	Cancels  *workspace.CancelRegistry
	Store    coordination.Store
}

func (r *LoopRunner) loopFor(agent *coordination.Agent) *workspace.Loop {
	return workspace.NewLoop(workspace.LoopConfig{
		Executor:      r.Executor,
		Model:         r.Model,
		SystemPrompt:  rolePrompts[agent.Role],
		Tools:         r.Tools,
		Cancels:       r.Cancels,
		MaxIterations: roleIterationBudget[agent.Role],
		Store:         r.Store,
	})
}

func (r *LoopRunner) Run(ctx context.Context, agent *coordination.Agent, prompt string) (string, error) {
	return r.loopFor(agent).Run(ctx, agent.ID, prompt)
}

func (r *LoopRunner) RunStreaming(ctx context.Context, agent *coordination.Agent, prompt string) <-chan workspace.StreamChunk {
	return r.loopFor(agent).RunStreaming(ctx, agent.ID, prompt)
}

var _ StreamRunner = (*LoopRunner)(nil)
