package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go.opentelemetry.io/otel/attribute"

	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/observability"
	"github.com/routa-ai/routa/pkg/taskparser"
	"github.com/routa-ai/routa/pkg/workspace"
)

// CancelGracePeriod is how long Stop waits for cooperative exit.
const CancelGracePeriod = 5 * time.Second

// DefaultMaxParallel bounds concurrent crafters in parallel mode.
const DefaultMaxParallel = 4

// Config wires one orchestrator instance to its workspace.
type Config struct {
	Store       coordination.Store
	Bus         *coordination.EventBus
	Runner      AgentRunner
	Cancels     *workspace.CancelRegistry
	WorkspaceID string

	// Parallel runs crafters concurrently up to MaxParallel; the default
	// is strict sequential order.
	Parallel    bool
	MaxParallel int
}

// Orchestrator runs the PLAN, DISPATCH, CRAFT, VERIFY, DONE pipeline for a
// single workspace.
type Orchestrator struct {
	cfg    Config
	debug  *DebugLog
	fanout *StreamFanout

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

func New(cfg Config) *Orchestrator {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	if cfg.Cancels == nil {
		cfg.Cancels = workspace.NewCancelRegistry()
	}
	return &Orchestrator{
		cfg:    cfg,
		debug:  NewDebugLog(),
		fanout: NewStreamFanout(),
	}
}

// DebugEntries returns the buffered debug log, oldest first.
func (o *Orchestrator) DebugEntries() []string {
	return o.debug.Entries()
}

// Fanout exposes the per-task output streams for parallel observers.
func (o *Orchestrator) Fanout() *StreamFanout {
	return o.fanout
}

// Stop interrupts every running agent and waits for cooperative exit, up to
// the grace period.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	done := o.done
	o.mu.Unlock()

	o.debug.Add("STOP requested")
	o.cfg.Cancels.InterruptAll()

	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(CancelGracePeriod):
		o.debug.Add("STOP grace period elapsed before cooperative exit")
	}
}

func (o *Orchestrator) isStopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

// Run executes the full pipeline for one user request.
func (o *Orchestrator) Run(ctx context.Context, userRequest string) *Result {
	tracer := observability.GetTracer("orchestrator")
	ctx, span := tracer.Start(ctx, observability.SpanOrchestratorRun)
	span.SetAttributes(attribute.String(observability.AttrWorkspaceID, o.cfg.WorkspaceID))
	defer span.End()

	o.mu.Lock()
	o.stopped = false
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()
	defer close(done)

	defer o.fanout.Close()

	// PLAN
	o.enterPhase(PhasePlan)
	if o.isStopped(ctx) {
		return o.cancelled(PhasePlan)
	}

	routa, err := o.plannerAgent()
	if err != nil {
		return o.failure(PhasePlan, err)
	}

	o.debug.Add("ROUTA running, prompt: %s", preview(userRequest))
	planText, err := o.cfg.Runner.Run(ctx, routa, userRequest)
	if err != nil {
		if coordination.ErrKind(err) == coordination.KindCancelled {
			return o.cancelled(PhasePlan)
		}
		return o.failure(PhasePlan, err)
	}
	o.debug.Add("ROUTA completed, output: %s", preview(planText))

	// DISPATCH
	o.enterPhase(PhaseDispatch)
	if o.isStopped(ctx) {
		return o.cancelled(PhaseDispatch)
	}

	tasks := taskparser.Parse(planText, o.cfg.WorkspaceID)
	if len(tasks) == 0 {
		o.debug.Add("NO_TASKS in plan output")
		o.enterPhase(PhaseDone)
		return &Result{Outcome: OutcomeNoTasks, Verdict: "NO_TASKS", ReachedPhase: PhaseDone}
	}

	for _, task := range tasks {
		if err := o.cfg.Store.SaveTask(task); err != nil {
			return o.failure(PhaseDispatch, err)
		}
		o.debug.Add("TASK planned: %s", task.Title)
		o.publish(coordination.EventTaskCreated, routa.ID, map[string]string{
			"task_id": task.ID,
			"title":   task.Title,
		})
	}

	// CRAFT
	o.enterPhase(PhaseCraft)
	outputs := make(map[string]string, len(tasks))

	if o.cfg.Parallel {
		var outputsMu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.MaxParallel)
		for _, task := range tasks {
			task := task
			g.Go(func() error {
				if o.isStopped(gctx) {
					return coordination.NewError(coordination.KindCancelled, "stopped before task %s", task.ID)
				}
				output, err := o.craftTask(gctx, routa.ID, task)
				if err != nil {
					return err
				}
				outputsMu.Lock()
				outputs[task.ID] = output
				outputsMu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if coordination.ErrKind(err) == coordination.KindCancelled {
				return o.cancelled(PhaseCraft)
			}
			return o.failurePartial(PhaseCraft, err, tasks, outputs)
		}
	} else {
		for _, task := range tasks {
			if o.isStopped(ctx) {
				return o.cancelled(PhaseCraft)
			}
			output, err := o.craftTask(ctx, routa.ID, task)
			if err != nil {
				if coordination.ErrKind(err) == coordination.KindCancelled {
					return o.cancelled(PhaseCraft)
				}
				return o.failurePartial(PhaseCraft, err, tasks, outputs)
			}
			outputs[task.ID] = output
		}
	}

	// VERIFY
	o.enterPhase(PhaseVerify)
	if o.isStopped(ctx) {
		return o.cancelled(PhaseVerify)
	}

	verdictText, err := o.verify(ctx, routa.ID, tasks, outputs)
	if err != nil {
		if coordination.ErrKind(err) == coordination.KindCancelled {
			return o.cancelled(PhaseVerify)
		}
		return o.failurePartial(PhaseVerify, err, tasks, outputs)
	}

	// DONE
	o.enterPhase(PhaseDone)
	verdict := parseVerdict(verdictText)
	o.debug.Add("GATE verdict: %s", verdict)
	return &Result{
		Outcome:        OutcomeSuccess,
		Verdict:        verdict,
		VerdictText:    verdictText,
		Tasks:          tasks,
		CrafterOutputs: outputs,
		ReachedPhase:   PhaseDone,
	}
}

func (o *Orchestrator) enterPhase(phase Phase) {
	o.debug.Add("PHASE %s", phase)
	slog.Debug("Orchestrator phase transition", "phase", phase, "workspace", o.cfg.WorkspaceID)
}

// plannerAgent returns the workspace's singleton planner, creating it when
// absent.
func (o *Orchestrator) plannerAgent() (*coordination.Agent, error) {
	routaID, err := o.cfg.Store.InitializeWorkspace(o.cfg.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return o.cfg.Store.GetAgent(routaID)
}

// craftTask runs one task through a fresh crafter agent.
func (o *Orchestrator) craftTask(ctx context.Context, routaID string, task *coordination.Task) (string, error) {
	agent := &coordination.Agent{
		ID:          uuid.NewString(),
		Name:        "crafter-" + shortID(task.ID),
		Role:        coordination.RoleCrafter,
		WorkspaceID: o.cfg.WorkspaceID,
		ParentID:    routaID,
		Status:      coordination.AgentPending,
	}
	if err := o.cfg.Store.SaveAgent(agent); err != nil {
		return "", err
	}
	o.publish(coordination.EventAgentCreated, agent.ID, map[string]string{
		"agent_id": agent.ID,
		"role":     string(agent.Role),
	})

	task.AssignedTo = agent.ID
	task.Status = coordination.TaskInProgress
	if err := o.cfg.Store.SaveTask(task); err != nil {
		return "", err
	}
	agent.Status = coordination.AgentActive
	if err := o.cfg.Store.SaveAgent(agent); err != nil {
		return "", err
	}

	o.debug.Add("CRAFTER running task %s: %s", shortID(task.ID), task.Title)
	o.debug.Add("STREAM open task %s", shortID(task.ID))

	prompt := craftPrompt(task)
	o.debug.Add("CRAFTER prompt: %s", preview(prompt))

	output, err := o.runCrafter(ctx, agent, task, prompt)
	o.fanout.CloseTask(task.ID)
	o.debug.Add("STREAM close task %s", shortID(task.ID))

	if err != nil {
		o.debug.Add("CRAFTER error task %s: %v", shortID(task.ID), err)
		task.Status = coordination.TaskFailed
		_ = o.cfg.Store.SaveTask(task)
		agent.Status = coordination.AgentError
		_ = o.cfg.Store.SaveAgent(agent)
		return output, err
	}

	task.Status = coordination.TaskCompleted
	if err := o.cfg.Store.SaveTask(task); err != nil {
		return output, err
	}
	agent.Status = coordination.AgentCompleted
	if err := o.cfg.Store.SaveAgent(agent); err != nil {
		return output, err
	}

	o.debug.Add("CRAFTER completed task %s", shortID(task.ID))
	o.publish(coordination.EventTaskCompleted, agent.ID, map[string]string{
		"task_id": task.ID,
	})
	return output, nil
}

// runCrafter executes one crafter prompt, feeding the task's fan-out as
// output arrives. Runners that cannot stream fall back to one final blob.
func (o *Orchestrator) runCrafter(ctx context.Context, agent *coordination.Agent, task *coordination.Task, prompt string) (string, error) {
	streamer, ok := o.cfg.Runner.(StreamRunner)
	if !ok {
		output, err := o.cfg.Runner.Run(ctx, agent, prompt)
		o.fanout.Publish(task.ID, output)
		return output, err
	}

	// The final answer is the text after the last tool transition; earlier
	// text segments carry tool-call markup and only feed the stream.
	var segment strings.Builder
	var runErr error
	for chunk := range streamer.RunStreaming(ctx, agent, prompt) {
		switch chunk.Kind {
		case workspace.ChunkText:
			segment.WriteString(chunk.Content)
			o.fanout.Publish(task.ID, chunk.Content)
		case workspace.ChunkToolCall:
			segment.Reset()
		case workspace.ChunkError:
			if !chunk.Recoverable && runErr == nil {
				runErr = coordination.NewError(coordination.KindUpstreamError,
					"agent %s: %s", agent.ID, chunk.ErrorMessage)
			}
		case workspace.ChunkCompleted:
			switch chunk.StopReason {
			case workspace.StopCancelled:
				runErr = coordination.NewError(coordination.KindCancelled, "agent %s cancelled", agent.ID)
			case workspace.StopMaxIterations:
				runErr = coordination.NewError(coordination.KindMaxIterations,
					"agent %s exhausted iterations", agent.ID)
			}
		}
	}
	return strings.TrimSpace(segment.String()), runErr
}

// verify asks a single gate agent for the final verdict.
func (o *Orchestrator) verify(ctx context.Context, routaID string, tasks []*coordination.Task, outputs map[string]string) (string, error) {
	gate := &coordination.Agent{
		ID:          uuid.NewString(),
		Name:        "gate",
		Role:        coordination.RoleGate,
		WorkspaceID: o.cfg.WorkspaceID,
		ParentID:    routaID,
		Status:      coordination.AgentActive,
	}
	if err := o.cfg.Store.SaveAgent(gate); err != nil {
		return "", err
	}

	prompt := verifyPrompt(tasks, outputs)
	o.debug.Add("GATE running, prompt: %s", preview(prompt))

	verdictText, err := o.cfg.Runner.Run(ctx, gate, prompt)
	if err != nil {
		gate.Status = coordination.AgentError
		_ = o.cfg.Store.SaveAgent(gate)
		return "", err
	}

	gate.Status = coordination.AgentCompleted
	if err := o.cfg.Store.SaveAgent(gate); err != nil {
		return verdictText, err
	}
	return verdictText, nil
}

func (o *Orchestrator) cancelled(phase Phase) *Result {
	o.debug.Add("CANCELLED at phase %s", phase)
	o.cfg.Cancels.InterruptAll()
	return &Result{Outcome: OutcomeCancelled, ReachedPhase: phase}
}

func (o *Orchestrator) failure(phase Phase, err error) *Result {
	o.debug.Add("ERROR at phase %s: %v", phase, err)
	return &Result{Outcome: OutcomeFailure, Reason: err.Error(), ReachedPhase: phase}
}

func (o *Orchestrator) failurePartial(phase Phase, err error, tasks []*coordination.Task, outputs map[string]string) *Result {
	result := o.failure(phase, err)
	result.Tasks = tasks
	result.CrafterOutputs = outputs
	return result
}

func (o *Orchestrator) publish(eventType, sourceAgentID string, payload map[string]string) {
	if o.cfg.Bus == nil {
		return
	}
	o.cfg.Bus.Publish(coordination.Event{
		Type:          eventType,
		Payload:       payload,
		SourceAgentID: sourceAgentID,
	})
}

func craftPrompt(task *coordination.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n\n", task.Title)
	if task.Objective != "" {
		fmt.Fprintf(&sb, "Objective:\n%s\n\n", task.Objective)
	}
	writePromptList(&sb, "Scope", task.Scope)
	writePromptList(&sb, "Definition of Done", task.AcceptanceCriteria)
	writePromptList(&sb, "Verification", task.VerificationCommands)
	sb.WriteString("Complete this task and summarize what you did.")
	return sb.String()
}

func verifyPrompt(tasks []*coordination.Task, outputs map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Review the following tasks and their implementation outputs.\n")
	sb.WriteString("Reply with APPROVED or REJECTED and your reasoning.\n\n")
	for i, task := range tasks {
		fmt.Fprintf(&sb, "--- Task %d: %s ---\n", i+1, task.Title)
		if task.Objective != "" {
			fmt.Fprintf(&sb, "Objective: %s\n", task.Objective)
		}
		writePromptList(&sb, "Definition of Done", task.AcceptanceCriteria)
		fmt.Fprintf(&sb, "Output:\n%s\n\n", outputs[task.ID])
	}
	return sb.String()
}

func writePromptList(sb *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(header + ":\n")
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
	sb.WriteString("\n")
}

// parseVerdict collapses the gate's free text to APPROVED or REJECTED.
func parseVerdict(text string) string {
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "REJECT") {
		return "REJECTED"
	}
	if strings.Contains(upper, "APPROV") {
		return "APPROVED"
	}
	return "REJECTED"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
