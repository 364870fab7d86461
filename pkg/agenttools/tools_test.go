package agenttools

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routa-ai/routa/pkg/coordination"
)

type fixture struct {
	store *coordination.MemoryStore
	bus   *coordination.EventBus
	tk    *Toolkit
	reg   *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := coordination.NewMemoryStore()
	bus := coordination.NewEventBus()
	t.Cleanup(bus.Close)
	tk := NewToolkit(store, bus)
	return &fixture{store: store, bus: bus, tk: tk, reg: NewToolkitRegistry(tk)}
}

func (f *fixture) exec(t *testing.T, tool string, args map[string]interface{}) ToolResult {
	t.Helper()
	impl, ok := f.reg.Get(tool)
	require.True(t, ok, tool)
	result, err := impl.Execute(context.Background(), args)
	require.NoError(t, err)
	return result
}

func (f *fixture) seedAgent(t *testing.T, workspaceID string, role coordination.AgentRole) *coordination.Agent {
	t.Helper()
	agent := &coordination.Agent{
		ID:          uuid.NewString(),
		Name:        "seed-" + string(role),
		Role:        role,
		WorkspaceID: workspaceID,
		Status:      coordination.AgentActive,
	}
	require.NoError(t, f.store.SaveAgent(agent))
	return agent
}

func (f *fixture) seedTask(t *testing.T, workspaceID string) *coordination.Task {
	t.Helper()
	task := &coordination.Task{
		ID:          uuid.NewString(),
		Title:       "seed task",
		Objective:   "do the thing",
		Status:      coordination.TaskPending,
		WorkspaceID: workspaceID,
	}
	require.NoError(t, f.store.SaveTask(task))
	return task
}

func TestRegistryContainsAllTools(t *testing.T) {
	f := newFixture(t)
	expected := []string{
		"list_agents", "create_agent", "get_agent_status", "get_agent_summary",
		"read_agent_conversation", "message_agent", "delegate_task", "report_to_parent",
		"wake_or_create_task_agent", "send_message_to_task_agent",
		"subscribe_to_events", "unsubscribe_from_events",
	}
	assert.Equal(t, len(expected), f.reg.Count())
	for _, name := range expected {
		_, ok := f.reg.Get(name)
		assert.True(t, ok, name)
	}
}

func TestCreateAgent(t *testing.T) {
	f := newFixture(t)
	sub := f.bus.Subscribe("observer", "obs", []string{"agent.*"}, false)

	result := f.exec(t, "create_agent", map[string]interface{}{
		"name":        "worker",
		"role":        "CRAFTER",
		"workspaceId": "ws-1",
		"modelTier":   "FAST",
	})
	require.True(t, result.Success, result.Error)

	agents, err := f.store.ListAgents("ws-1")
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, coordination.AgentPending, agents[0].Status)
	assert.Equal(t, coordination.TierFast, agents[0].ModelTier)

	ev := <-sub.Events()
	assert.Equal(t, coordination.EventAgentCreated, ev.Type)
	assert.Equal(t, "worker", ev.Payload["name"])
}

func TestCreateAgent_RejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	result := f.exec(t, "create_agent", map[string]interface{}{
		"name":        "worker",
		"role":        "WIZARD",
		"workspaceId": "ws-1",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown agent role")
}

func TestListAgents(t *testing.T) {
	f := newFixture(t)
	agent := f.seedAgent(t, "ws-1", coordination.RoleRouta)

	result := f.exec(t, "list_agents", map[string]interface{}{"workspaceId": "ws-1"})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, agent.ID)
	assert.Contains(t, result.Output, "ROUTA")

	empty := f.exec(t, "list_agents", map[string]interface{}{"workspaceId": "ws-empty"})
	require.True(t, empty.Success)
	assert.Contains(t, empty.Output, "No agents")
}

func TestGetAgentStatus(t *testing.T) {
	f := newFixture(t)
	agent := f.seedAgent(t, "ws-1", coordination.RoleGate)

	result := f.exec(t, "get_agent_status", map[string]interface{}{"agentId": agent.ID})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "status=ACTIVE")
	assert.Contains(t, result.Output, "role=GATE")

	missing := f.exec(t, "get_agent_status", map[string]interface{}{"agentId": "ghost"})
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Error, "NOT_FOUND")
}

func TestDelegateTask(t *testing.T) {
	f := newFixture(t)
	routa := f.seedAgent(t, "ws-1", coordination.RoleRouta)
	crafter := f.seedAgent(t, "ws-1", coordination.RoleCrafter)
	crafter.Status = coordination.AgentActive
	task := f.seedTask(t, "ws-1")

	result := f.exec(t, "delegate_task", map[string]interface{}{
		"agentId":       crafter.ID,
		"taskId":        task.ID,
		"callerAgentId": routa.ID,
	})
	require.True(t, result.Success, result.Error)

	updated, err := f.store.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, coordination.TaskInProgress, updated.Status)
	assert.Equal(t, crafter.ID, updated.AssignedTo)
}

func TestReportToParent(t *testing.T) {
	f := newFixture(t)
	routa := f.seedAgent(t, "ws-1", coordination.RoleRouta)
	crafter := f.seedAgent(t, "ws-1", coordination.RoleCrafter)
	crafter.ParentID = routa.ID
	require.NoError(t, f.store.SaveAgent(crafter))
	task := f.seedTask(t, "ws-1")
	task.AssignedTo = crafter.ID
	task.Status = coordination.TaskInProgress
	require.NoError(t, f.store.SaveTask(task))

	result := f.exec(t, "report_to_parent", map[string]interface{}{
		"agentId":       crafter.ID,
		"taskId":        task.ID,
		"summary":       "implemented the parser",
		"filesModified": []interface{}{"parser.go"},
		"success":       true,
	})
	require.True(t, result.Success, result.Error)

	updated, err := f.store.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, coordination.TaskCompleted, updated.Status)

	reporter, err := f.store.GetAgent(crafter.ID)
	require.NoError(t, err)
	assert.Equal(t, coordination.AgentCompleted, reporter.Status)

	msgs, err := f.store.ReadConversation(routa.ID, 0, true)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "implemented the parser")
	assert.Contains(t, msgs[0].Content, "COMPLETED")
}

func TestReportToParent_Failure(t *testing.T) {
	f := newFixture(t)
	crafter := f.seedAgent(t, "ws-1", coordination.RoleCrafter)
	task := f.seedTask(t, "ws-1")
	task.AssignedTo = crafter.ID
	task.Status = coordination.TaskInProgress
	require.NoError(t, f.store.SaveTask(task))

	result := f.exec(t, "report_to_parent", map[string]interface{}{
		"agentId": crafter.ID,
		"taskId":  task.ID,
		"summary": "could not finish",
		"success": false,
	})
	require.True(t, result.Success)

	updated, err := f.store.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, coordination.TaskFailed, updated.Status)
}

func TestWakeOrCreateTaskAgent_CreatesNew(t *testing.T) {
	f := newFixture(t)
	routa := f.seedAgent(t, "ws-1", coordination.RoleRouta)
	task := f.seedTask(t, "ws-1")

	result := f.exec(t, "wake_or_create_task_agent", map[string]interface{}{
		"taskId":         task.ID,
		"contextMessage": "please start on the parser",
		"callerAgentId":  routa.ID,
		"workspaceId":    "ws-1",
	})
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Output, "created_new")

	updated, err := f.store.GetTask(task.ID)
	require.NoError(t, err)
	require.NotEmpty(t, updated.AssignedTo)

	agent, err := f.store.GetAgent(updated.AssignedTo)
	require.NoError(t, err)
	assert.Equal(t, coordination.RoleCrafter, agent.Role)
	assert.Equal(t, routa.ID, agent.ParentID)

	msgs, err := f.store.ReadConversation(agent.ID, 0, true)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "please start on the parser", msgs[0].Content)
}

func TestWakeOrCreateTaskAgent_WakesExisting(t *testing.T) {
	f := newFixture(t)
	routa := f.seedAgent(t, "ws-1", coordination.RoleRouta)
	crafter := f.seedAgent(t, "ws-1", coordination.RoleCrafter)
	task := f.seedTask(t, "ws-1")
	task.AssignedTo = crafter.ID
	task.Status = coordination.TaskInProgress
	require.NoError(t, f.store.SaveTask(task))

	result := f.exec(t, "wake_or_create_task_agent", map[string]interface{}{
		"taskId":         task.ID,
		"contextMessage": "any progress?",
		"callerAgentId":  routa.ID,
		"workspaceId":    "ws-1",
	})
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Output, "woke")

	msgs, err := f.store.ReadConversation(crafter.ID, 0, true)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "any progress?", msgs[0].Content)
}

func TestSendMessageToTaskAgent_NotAssigned(t *testing.T) {
	f := newFixture(t)
	routa := f.seedAgent(t, "ws-1", coordination.RoleRouta)
	task := f.seedTask(t, "ws-1")

	result := f.exec(t, "send_message_to_task_agent", map[string]interface{}{
		"taskId":        task.ID,
		"message":       "status?",
		"callerAgentId": routa.ID,
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "NOT_ASSIGNED")
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	f := newFixture(t)
	agent := f.seedAgent(t, "ws-1", coordination.RoleGate)

	result := f.exec(t, "subscribe_to_events", map[string]interface{}{
		"agentId":    agent.ID,
		"agentName":  agent.Name,
		"eventTypes": []interface{}{"task.*"},
	})
	require.True(t, result.Success, result.Error)
	subscriptionID := result.Output
	require.NotEmpty(t, subscriptionID)
	assert.Equal(t, 1, f.bus.SubscriberCount())

	release := f.exec(t, "unsubscribe_from_events", map[string]interface{}{
		"subscriptionId": subscriptionID,
	})
	require.True(t, release.Success)
	assert.Equal(t, 0, f.bus.SubscriberCount())

	// Releasing again is still a success.
	again := f.exec(t, "unsubscribe_from_events", map[string]interface{}{
		"subscriptionId": subscriptionID,
	})
	assert.True(t, again.Success)
}

func TestMissingRequiredArgument(t *testing.T) {
	f := newFixture(t)
	result := f.exec(t, "message_agent", map[string]interface{}{
		"fromAgentId": "a",
		"toAgentId":   "b",
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "missing required argument")
}
