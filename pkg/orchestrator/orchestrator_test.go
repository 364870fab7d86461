package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/workspace"
)

const twoTaskPlan = `Here is the plan.

@@@task
# Implement the parser
## Objective
Build the block parser.
## Definition of Done
- parser handles nested fences
@@@

@@@task
# Implement the executor
## Objective
Build the tool executor.
## Definition of Done
- executor rejects path escapes
@@@
`

// roleRunner replies per role and records execution order.
type roleRunner struct {
	mu      sync.Mutex
	order   []coordination.AgentRole
	planOut string
	craft   string
	verdict string
	craftFn func(agent *coordination.Agent, prompt string) (string, error)
}

func (r *roleRunner) Run(ctx context.Context, agent *coordination.Agent, prompt string) (string, error) {
	r.mu.Lock()
	r.order = append(r.order, agent.Role)
	r.mu.Unlock()

	switch agent.Role {
	case coordination.RoleRouta:
		return r.planOut, nil
	case coordination.RoleCrafter:
		if r.craftFn != nil {
			return r.craftFn(agent, prompt)
		}
		return r.craft, nil
	case coordination.RoleGate:
		return r.verdict, nil
	}
	return "", nil
}

func newOrchestrator(t *testing.T, runner AgentRunner, parallel bool) (*Orchestrator, *coordination.MemoryStore) {
	t.Helper()
	store := coordination.NewMemoryStore()
	bus := coordination.NewEventBus()
	t.Cleanup(bus.Close)
	o := New(Config{
		Store:       store,
		Bus:         bus,
		Runner:      runner,
		Cancels:     workspace.NewCancelRegistry(),
		WorkspaceID: "ws-1",
		Parallel:    parallel,
	})
	return o, store
}

func countEntries(entries []string, substr string) int {
	n := 0
	for _, entry := range entries {
		if strings.Contains(entry, substr) {
			n++
		}
	}
	return n
}

func TestRun_HappyPath(t *testing.T) {
	runner := &roleRunner{planOut: twoTaskPlan, craft: "Implemented the module.", verdict: "✅ APPROVED"}
	o, store := newOrchestrator(t, runner, false)

	result := o.Run(context.Background(), "Build the system")

	require.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "APPROVED", result.Verdict)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "Implement the parser", result.Tasks[0].Title)
	assert.Equal(t, "Implement the executor", result.Tasks[1].Title)
	require.Len(t, result.CrafterOutputs, 2)
	for _, task := range result.Tasks {
		assert.Equal(t, "Implemented the module.", result.CrafterOutputs[task.ID])
		saved, err := store.GetTask(task.ID)
		require.NoError(t, err)
		assert.Equal(t, coordination.TaskCompleted, saved.Status)
	}

	assert.Equal(t, []coordination.AgentRole{
		coordination.RoleRouta,
		coordination.RoleCrafter,
		coordination.RoleCrafter,
		coordination.RoleGate,
	}, runner.order)

	entries := o.DebugEntries()
	assert.Equal(t, 2, countEntries(entries, "TASK planned"))
	assert.Equal(t, 2, countEntries(entries, "CRAFTER running"))
	assert.Equal(t, 2, countEntries(entries, "CRAFTER completed"))
	for _, phase := range []string{"PHASE PLAN", "PHASE DISPATCH", "PHASE CRAFT", "PHASE VERIFY", "PHASE DONE"} {
		assert.Equal(t, 1, countEntries(entries, phase), phase)
	}
}

func TestRun_NoTasks(t *testing.T) {
	runner := &roleRunner{planOut: "I could not find anything to do."}
	o, _ := newOrchestrator(t, runner, false)

	result := o.Run(context.Background(), "do nothing")

	assert.Equal(t, OutcomeNoTasks, result.Outcome)
	assert.Equal(t, "NO_TASKS", result.Verdict)
	assert.Equal(t, PhaseDone, result.ReachedPhase)
	// Only the planner ran.
	assert.Equal(t, []coordination.AgentRole{coordination.RoleRouta}, runner.order)
	assert.Equal(t, 1, countEntries(o.DebugEntries(), "NO_TASKS"))
}

func TestRun_CrafterFailureIsPartial(t *testing.T) {
	calls := 0
	runner := &roleRunner{
		planOut: twoTaskPlan,
		craftFn: func(agent *coordination.Agent, prompt string) (string, error) {
			calls++
			if calls == 2 {
				return "", coordination.NewError(coordination.KindUpstreamError, "provider exploded")
			}
			return "Implemented.", nil
		},
	}
	o, store := newOrchestrator(t, runner, false)

	result := o.Run(context.Background(), "build")

	assert.Equal(t, OutcomeFailure, result.Outcome)
	assert.Equal(t, PhaseCraft, result.ReachedPhase)
	assert.Contains(t, result.Reason, "provider exploded")
	// The first task's output survives as a partial result.
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "Implemented.", result.CrafterOutputs[result.Tasks[0].ID])

	failed, err := store.GetTask(result.Tasks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, coordination.TaskFailed, failed.Status)
}

func TestRun_RejectedVerdict(t *testing.T) {
	runner := &roleRunner{planOut: twoTaskPlan, craft: "Half done.", verdict: "REJECTED: acceptance criteria unmet"}
	o, _ := newOrchestrator(t, runner, false)

	result := o.Run(context.Background(), "build")
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, "REJECTED", result.Verdict)
	assert.Contains(t, result.VerdictText, "acceptance criteria unmet")
}

func TestRun_StopDuringCraft(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	runner := &roleRunner{
		planOut: twoTaskPlan,
		verdict: "APPROVED",
		craftFn: func(agent *coordination.Agent, prompt string) (string, error) {
			once.Do(func() { close(started) })
			<-release
			return "done", nil
		},
	}
	o, _ := newOrchestrator(t, runner, false)

	results := make(chan *Result, 1)
	go func() { results <- o.Run(context.Background(), "build") }()

	<-started
	go func() {
		// Let the first crafter return after the stop flag is set.
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	o.Stop()

	result := <-results
	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.Equal(t, PhaseCraft, result.ReachedPhase)
	assert.Equal(t, 1, countEntries(o.DebugEntries(), "STOP requested"))
}

func TestRun_ParallelMode(t *testing.T) {
	runner := &roleRunner{planOut: twoTaskPlan, craft: "Implemented concurrently.", verdict: "APPROVED"}
	o, _ := newOrchestrator(t, runner, true)

	result := o.Run(context.Background(), "build")

	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Len(t, result.CrafterOutputs, 2)
	for _, task := range result.Tasks {
		assert.Equal(t, "Implemented concurrently.", result.CrafterOutputs[task.ID])
	}
}

// streamingRunner replays a fixed chunk sequence for every crafter.
type streamingRunner struct {
	chunks []workspace.StreamChunk
}

func (r *streamingRunner) Run(ctx context.Context, agent *coordination.Agent, prompt string) (string, error) {
	return "", nil
}

func (r *streamingRunner) RunStreaming(ctx context.Context, agent *coordination.Agent, prompt string) <-chan workspace.StreamChunk {
	out := make(chan workspace.StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range r.chunks {
			out <- chunk
		}
	}()
	return out
}

func seedTask(t *testing.T, store *coordination.MemoryStore, id string) *coordination.Task {
	t.Helper()
	task := &coordination.Task{ID: id, Title: "list files", Status: coordination.TaskPending, WorkspaceID: "ws-1"}
	require.NoError(t, store.SaveTask(task))
	return task
}

func TestCraftTask_StreamsChunksToFanout(t *testing.T) {
	runner := &streamingRunner{chunks: []workspace.StreamChunk{
		workspace.TextChunk(`<tool_call>{"name":"list_files","arguments":{}}</tool_call>`),
		workspace.ToolCallChunk("list_files", workspace.ToolStarted, nil, ""),
		workspace.ToolCallChunk("list_files", workspace.ToolCompleted, nil, "[file] a.txt"),
		workspace.TextChunk("\n\n"),
		workspace.TextChunk("Done."),
		workspace.CompletedChunk(workspace.StopEndTurn),
	}}
	o, store := newOrchestrator(t, runner, false)
	routaID, err := store.InitializeWorkspace("ws-1")
	require.NoError(t, err)
	task := seedTask(t, store, "task-stream")

	sub := o.Fanout().Subscribe(task.ID)

	output, err := o.craftTask(context.Background(), routaID, task)
	require.NoError(t, err)
	assert.Equal(t, "Done.", output)

	var pieces []string
	for piece := range sub {
		pieces = append(pieces, piece)
	}
	// Every text chunk reaches the subscriber as it is produced, not one
	// final blob at completion.
	assert.Equal(t, []string{
		`<tool_call>{"name":"list_files","arguments":{}}</tool_call>`,
		"\n\n",
		"Done.",
	}, pieces)

	saved, err := store.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, coordination.TaskCompleted, saved.Status)
}

func TestCraftTask_StreamCancelled(t *testing.T) {
	runner := &streamingRunner{chunks: []workspace.StreamChunk{
		workspace.TextChunk("partial"),
		workspace.CompletedChunk(workspace.StopCancelled),
	}}
	o, store := newOrchestrator(t, runner, false)
	routaID, err := store.InitializeWorkspace("ws-1")
	require.NoError(t, err)
	task := seedTask(t, store, "task-cancel")

	_, err = o.craftTask(context.Background(), routaID, task)
	require.Error(t, err)
	assert.Equal(t, coordination.KindCancelled, coordination.ErrKind(err))
}

func TestParseVerdict(t *testing.T) {
	assert.Equal(t, "APPROVED", parseVerdict("✅ APPROVED"))
	assert.Equal(t, "APPROVED", parseVerdict("I approve this work."))
	assert.Equal(t, "REJECTED", parseVerdict("REJECTED: missing tests"))
	assert.Equal(t, "REJECTED", parseVerdict("Approved? No. Rejected."))
	assert.Equal(t, "REJECTED", parseVerdict("no clear verdict"))
}

func TestDebugLog_RingEviction(t *testing.T) {
	log := NewDebugLog()
	for i := 0; i < DebugLogCapacity+25; i++ {
		log.Add("entry %d", i)
	}

	entries := log.Entries()
	require.Len(t, entries, DebugLogCapacity)
	assert.Contains(t, entries[0], "entry 25")
	assert.Contains(t, entries[len(entries)-1], "entry 524")
}

func TestPreview_RuneBoundary(t *testing.T) {
	long := strings.Repeat("任务一：检查当前代码状态并分析重置选项", 5)
	got := preview(long)

	assert.True(t, utf8.ValidString(got), "preview produced invalid UTF-8: %q", got)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 80+len("..."))

	short := "unchanged"
	assert.Equal(t, short, preview(short))
}

func TestStreamFanout(t *testing.T) {
	f := NewStreamFanout()
	sub := f.Subscribe("task-1")
	other := f.Subscribe("task-2")

	f.Publish("task-1", "hello")
	f.CloseTask("task-1")

	var got []string
	for piece := range sub {
		got = append(got, piece)
	}
	assert.Equal(t, []string{"hello"}, got)

	// The other task's subscriber is untouched until Close.
	f.Close()
	_, open := <-other
	assert.False(t, open)
}
