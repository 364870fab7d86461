// Package a2a exposes the coordination tools over the agent-to-agent
// surface: JSON command payloads in, plain-text replies out.
package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/routa-ai/routa/pkg/agenttools"
	"github.com/routa-ai/routa/pkg/coordination"
)

const expectedFormat = `{"command": "<name>", "<arg>": "<value>", ...}`

// Dispatcher routes inbound command payloads to the coordination tools,
// plus the initialize and create_task extras.
type Dispatcher struct {
	store coordination.Store
	tools *agenttools.Registry
}

func NewDispatcher(store coordination.Store, tools *agenttools.Registry) *Dispatcher {
	return &Dispatcher{store: store, tools: tools}
}

// Dispatch handles one inbound payload and always returns a reply string;
// failures are encoded into the reply rather than surfaced as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, payload string) string {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return fmt.Sprintf("Error: %v\n\nExpected JSON format: %s", err, expectedFormat)
	}

	command, _ := raw["command"].(string)
	if command == "" {
		return errorReply("missing required field \"command\"")
	}
	delete(raw, "command")

	switch command {
	case "initialize":
		return d.initialize(raw)
	case "create_task":
		return d.createTask(raw)
	}

	tool, ok := d.tools.Get(command)
	if !ok {
		return errorReply(fmt.Sprintf("unknown command %q. Available commands: %s",
			command, strings.Join(d.commands(), ", ")))
	}

	result, err := tool.Execute(ctx, raw)
	if err != nil {
		return errorReply(err.Error())
	}
	if !result.Success {
		return errorReply(result.Error)
	}
	return result.Output
}

func (d *Dispatcher) commands() []string {
	names := append(d.tools.Names(), "initialize", "create_task")
	sort.Strings(names)
	return names
}

// initialize idempotently creates the workspace's planner agent.
func (d *Dispatcher) initialize(args map[string]interface{}) string {
	workspaceID, _ := args["workspaceId"].(string)
	if workspaceID == "" {
		return errorReply("initialize requires \"workspaceId\"")
	}

	routaID, err := d.store.InitializeWorkspace(workspaceID)
	if err != nil {
		return errorReply(err.Error())
	}

	reply, _ := json.Marshal(map[string]string{
		"workspace_id":   workspaceID,
		"routa_agent_id": routaID,
	})
	return string(reply)
}

// createTask writes a task record directly, bypassing the markdown parser.
func (d *Dispatcher) createTask(args map[string]interface{}) string {
	title, _ := args["title"].(string)
	workspaceID, _ := args["workspaceId"].(string)
	if title == "" || workspaceID == "" {
		return errorReply("create_task requires \"title\" and \"workspaceId\"")
	}

	task := &coordination.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Status:      coordination.TaskPending,
		WorkspaceID: workspaceID,
	}
	if objective, ok := args["objective"].(string); ok {
		task.Objective = objective
	}
	task.Scope = stringList(args["scope"])
	task.AcceptanceCriteria = stringList(args["acceptanceCriteria"])
	task.VerificationCommands = stringList(args["verificationCommands"])

	if err := d.store.SaveTask(task); err != nil {
		return errorReply(err.Error())
	}

	reply, _ := json.Marshal(map[string]string{"task_id": task.ID})
	return string(reply)
}

func stringList(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}

func errorReply(message string) string {
	reply, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   message,
	})
	return string(reply)
}
