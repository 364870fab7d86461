package agenttools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/routa-ai/routa/pkg/coordination"
)

// DelegateTaskTool assigns a task to an agent and activates both.
type DelegateTaskTool struct {
	tk *Toolkit
}

func (t *DelegateTaskTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "delegate_task",
		Description: "Assign a task to an agent. The task moves to IN_PROGRESS and the agent to ACTIVE.",
		Parameters: []ToolParameter{
			{Name: "agentId", Type: TypeString, Description: "Agent to receive the task", Required: true},
			{Name: "taskId", Type: TypeString, Description: "Task to delegate", Required: true},
			{Name: "callerAgentId", Type: TypeString, Description: "Delegating agent id", Required: true},
		},
	}
}

func (t *DelegateTaskTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	agentID, err := stringArg(args, "agentId")
	if err != nil {
		return errorResult("delegate_task", err), nil
	}
	taskID, err := stringArg(args, "taskId")
	if err != nil {
		return errorResult("delegate_task", err), nil
	}
	callerID, err := stringArg(args, "callerAgentId")
	if err != nil {
		return errorResult("delegate_task", err), nil
	}

	if err := t.tk.delegate(taskID, agentID, callerID); err != nil {
		return errorResult("delegate_task", err), nil
	}
	return successResult("delegate_task", fmt.Sprintf("Task %s delegated to %s", taskID, agentID)), nil
}

// delegate is the shared assignment path used by delegate_task and
// wake_or_create_task_agent.
func (tk *Toolkit) delegate(taskID, agentID, callerID string) error {
	task, err := tk.store.GetTask(taskID)
	if err != nil {
		return err
	}
	agent, err := tk.store.GetAgent(agentID)
	if err != nil {
		return err
	}

	task.AssignedTo = agentID
	task.Status = coordination.TaskInProgress
	if err := tk.store.SaveTask(task); err != nil {
		return err
	}

	if agent.Status == coordination.AgentPending {
		agent.Status = coordination.AgentActive
		if err := tk.store.SaveAgent(agent); err != nil {
			return err
		}
	}

	tk.publish(coordination.EventTaskDelegated, callerID, map[string]string{
		"task_id":  taskID,
		"agent_id": agentID,
	})
	return nil
}

// ReportToParentTool closes out a task and surfaces the result upward.
type ReportToParentTool struct {
	tk *Toolkit
}

func (t *ReportToParentTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "report_to_parent",
		Description: "Report task completion to the parent agent. Closes the task and marks the reporting agent COMPLETED.",
		Parameters: []ToolParameter{
			{Name: "agentId", Type: TypeString, Description: "Reporting agent id", Required: true},
			{Name: "taskId", Type: TypeString, Description: "Task being reported", Required: true},
			{Name: "summary", Type: TypeString, Description: "What was accomplished", Required: true},
			{Name: "filesModified", Type: TypeList, Description: "Paths touched while working", Required: false},
			{Name: "success", Type: TypeBoolean, Description: "Whether the task succeeded", Required: false},
		},
	}
}

func (t *ReportToParentTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	agentID, err := stringArg(args, "agentId")
	if err != nil {
		return errorResult("report_to_parent", err), nil
	}
	taskID, err := stringArg(args, "taskId")
	if err != nil {
		return errorResult("report_to_parent", err), nil
	}
	summary, err := stringArg(args, "summary")
	if err != nil {
		return errorResult("report_to_parent", err), nil
	}

	report := coordination.CompletionReport{
		AgentID:       agentID,
		TaskID:        taskID,
		Summary:       summary,
		FilesModified: stringListArg(args, "filesModified"),
		Success:       boolArg(args, "success", true),
	}

	task, err := t.tk.store.GetTask(taskID)
	if err != nil {
		return errorResult("report_to_parent", err), nil
	}
	agent, err := t.tk.store.GetAgent(agentID)
	if err != nil {
		return errorResult("report_to_parent", err), nil
	}

	if report.Success {
		task.Status = coordination.TaskCompleted
	} else {
		task.Status = coordination.TaskFailed
	}
	if err := t.tk.store.SaveTask(task); err != nil {
		return errorResult("report_to_parent", err), nil
	}

	agent.Status = coordination.AgentCompleted
	if err := t.tk.store.SaveAgent(agent); err != nil {
		return errorResult("report_to_parent", err), nil
	}

	if agent.ParentID != "" {
		if err := t.tk.store.AppendMessage(agent.ParentID, coordination.ConversationMessage{
			FromAgentID: agentID,
			Content:     report.String(),
			Kind:        coordination.MessageUser,
		}); err != nil {
			return errorResult("report_to_parent", err), nil
		}
	}

	t.tk.publish(coordination.EventTaskCompleted, agentID, map[string]string{
		"task_id": taskID,
		"success": fmt.Sprintf("%t", report.Success),
	})
	return successResult("report_to_parent", report.String()), nil
}

// WakeOrCreateTaskAgentTool routes context to the task's agent, creating a
// CRAFTER on the fly when the task is still unassigned.
type WakeOrCreateTaskAgentTool struct {
	tk *Toolkit
}

func (t *WakeOrCreateTaskAgentTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "wake_or_create_task_agent",
		Description: "Deliver context to the agent working on a task. Creates and delegates a new CRAFTER when the task has no assignee.",
		Parameters: []ToolParameter{
			{Name: "taskId", Type: TypeString, Description: "Target task", Required: true},
			{Name: "contextMessage", Type: TypeString, Description: "Message for the task agent", Required: true},
			{Name: "callerAgentId", Type: TypeString, Description: "Calling agent id", Required: true},
			{Name: "workspaceId", Type: TypeString, Description: "Workspace for a newly created agent", Required: true},
			{Name: "agentName", Type: TypeString, Description: "Name for a newly created agent", Required: false},
			{Name: "modelTier", Type: TypeEnum, Description: "Model tier for a newly created agent", Required: false, Enum: []string{"FAST", "BALANCED", "SMART"}},
		},
	}
}

func (t *WakeOrCreateTaskAgentTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	taskID, err := stringArg(args, "taskId")
	if err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}
	contextMessage, err := stringArg(args, "contextMessage")
	if err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}
	callerID, err := stringArg(args, "callerAgentId")
	if err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}
	workspaceID, err := stringArg(args, "workspaceId")
	if err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}

	task, err := t.tk.store.GetTask(taskID)
	if err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}

	if task.AssignedTo != "" {
		if err := t.tk.store.AppendMessage(task.AssignedTo, coordination.ConversationMessage{
			FromAgentID: callerID,
			Content:     contextMessage,
			Kind:        coordination.MessageUser,
		}); err != nil {
			return errorResult("wake_or_create_task_agent", err), nil
		}
		t.tk.publish(coordination.EventMessageSent, callerID, map[string]string{
			"to":      task.AssignedTo,
			"task_id": taskID,
		})
		return successResult("wake_or_create_task_agent",
			fmt.Sprintf("woke agent %s for task %s", task.AssignedTo, taskID)), nil
	}

	name, _ := optionalStringArg(args, "agentName")
	if name == "" {
		name = "crafter-" + shortID(taskID)
	}

	agent := &coordination.Agent{
		ID:          uuid.NewString(),
		Name:        name,
		Role:        coordination.RoleCrafter,
		WorkspaceID: workspaceID,
		ParentID:    callerID,
		Status:      coordination.AgentPending,
	}
	if tierStr, _ := optionalStringArg(args, "modelTier"); tierStr != "" {
		tier, err := coordination.ParseModelTier(tierStr)
		if err != nil {
			return errorResult("wake_or_create_task_agent", err), nil
		}
		agent.ModelTier = tier
	}

	if err := t.tk.store.SaveAgent(agent); err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}
	t.tk.publish(coordination.EventAgentCreated, agent.ID, map[string]string{
		"agent_id":     agent.ID,
		"name":         agent.Name,
		"role":         string(agent.Role),
		"workspace_id": workspaceID,
	})

	if err := t.tk.delegate(taskID, agent.ID, callerID); err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}
	if err := t.tk.store.AppendMessage(agent.ID, coordination.ConversationMessage{
		FromAgentID: callerID,
		Content:     contextMessage,
		Kind:        coordination.MessageUser,
	}); err != nil {
		return errorResult("wake_or_create_task_agent", err), nil
	}

	return successResult("wake_or_create_task_agent",
		fmt.Sprintf("created_new agent %s for task %s", agent.ID, taskID)), nil
}

// SendMessageToTaskAgentTool routes a message through a task's assignment.
type SendMessageToTaskAgentTool struct {
	tk *Toolkit
}

func (t *SendMessageToTaskAgentTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "send_message_to_task_agent",
		Description: "Send a message to whichever agent is assigned to a task.",
		Parameters: []ToolParameter{
			{Name: "taskId", Type: TypeString, Description: "Target task", Required: true},
			{Name: "message", Type: TypeString, Description: "Message content", Required: true},
			{Name: "callerAgentId", Type: TypeString, Description: "Calling agent id", Required: true},
		},
	}
}

func (t *SendMessageToTaskAgentTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	taskID, err := stringArg(args, "taskId")
	if err != nil {
		return errorResult("send_message_to_task_agent", err), nil
	}
	message, err := stringArg(args, "message")
	if err != nil {
		return errorResult("send_message_to_task_agent", err), nil
	}
	callerID, err := stringArg(args, "callerAgentId")
	if err != nil {
		return errorResult("send_message_to_task_agent", err), nil
	}

	task, err := t.tk.store.GetTask(taskID)
	if err != nil {
		return errorResult("send_message_to_task_agent", err), nil
	}
	if task.AssignedTo == "" {
		return errorResult("send_message_to_task_agent",
			coordination.NewError(coordination.KindInvalidState, "task %s is NOT_ASSIGNED", taskID)), nil
	}

	if err := t.tk.store.AppendMessage(task.AssignedTo, coordination.ConversationMessage{
		FromAgentID: callerID,
		Content:     message,
		Kind:        coordination.MessageUser,
	}); err != nil {
		return errorResult("send_message_to_task_agent", err), nil
	}

	t.tk.publish(coordination.EventMessageSent, callerID, map[string]string{
		"to":      task.AssignedTo,
		"task_id": taskID,
	})
	return successResult("send_message_to_task_agent",
		fmt.Sprintf("Message delivered to %s", task.AssignedTo)), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
