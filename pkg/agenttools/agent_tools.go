package agenttools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/routa-ai/routa/pkg/coordination"
)

// ListAgentsTool renders the workspace roster.
type ListAgentsTool struct {
	tk *Toolkit
}

func (t *ListAgentsTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "list_agents",
		Description: "List every agent in a workspace with id, name, role and status.",
		Parameters: []ToolParameter{
			{Name: "workspaceId", Type: TypeString, Description: "Workspace to list", Required: true},
		},
	}
}

func (t *ListAgentsTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	workspaceID, err := stringArg(args, "workspaceId")
	if err != nil {
		return errorResult("list_agents", err), nil
	}

	agents, err := t.tk.store.ListAgents(workspaceID)
	if err != nil {
		return errorResult("list_agents", err), nil
	}
	if len(agents) == 0 {
		return successResult("list_agents", "No agents in workspace "+workspaceID), nil
	}

	var sb strings.Builder
	for _, agent := range agents {
		fmt.Fprintf(&sb, "%s | %s | %s | %s\n", agent.ID, agent.Name, agent.Role, agent.Status)
	}
	return successResult("list_agents", strings.TrimRight(sb.String(), "\n")), nil
}

// CreateAgentTool spawns a new agent in PENDING state.
type CreateAgentTool struct {
	tk *Toolkit
}

func (t *CreateAgentTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "create_agent",
		Description: "Create a new agent in the workspace. The agent starts PENDING until work is delegated to it.",
		Parameters: []ToolParameter{
			{Name: "name", Type: TypeString, Description: "Human-readable agent name", Required: true},
			{Name: "role", Type: TypeEnum, Description: "Agent role", Required: true, Enum: []string{"ROUTA", "CRAFTER", "GATE"}},
			{Name: "workspaceId", Type: TypeString, Description: "Owning workspace", Required: true},
			{Name: "parentId", Type: TypeString, Description: "Parent agent id", Required: false},
			{Name: "modelTier", Type: TypeEnum, Description: "Model tier preference", Required: false, Enum: []string{"FAST", "BALANCED", "SMART"}},
		},
	}
}

func (t *CreateAgentTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return errorResult("create_agent", err), nil
	}
	roleStr, err := stringArg(args, "role")
	if err != nil {
		return errorResult("create_agent", err), nil
	}
	workspaceID, err := stringArg(args, "workspaceId")
	if err != nil {
		return errorResult("create_agent", err), nil
	}

	role, err := coordination.ParseRole(roleStr)
	if err != nil {
		return errorResult("create_agent", err), nil
	}

	agent := &coordination.Agent{
		ID:          uuid.NewString(),
		Name:        name,
		Role:        role,
		WorkspaceID: workspaceID,
		Status:      coordination.AgentPending,
	}
	if parentID, _ := optionalStringArg(args, "parentId"); parentID != "" {
		agent.ParentID = parentID
	}
	if tierStr, _ := optionalStringArg(args, "modelTier"); tierStr != "" {
		tier, err := coordination.ParseModelTier(tierStr)
		if err != nil {
			return errorResult("create_agent", err), nil
		}
		agent.ModelTier = tier
	}

	if err := t.tk.store.SaveAgent(agent); err != nil {
		return errorResult("create_agent", err), nil
	}

	t.tk.publish(coordination.EventAgentCreated, agent.ID, map[string]string{
		"agent_id":     agent.ID,
		"name":         agent.Name,
		"role":         string(agent.Role),
		"workspace_id": agent.WorkspaceID,
	})
	return successResult("create_agent", fmt.Sprintf("Created agent %s (%s, %s)", agent.ID, agent.Name, agent.Role)), nil
}

// GetAgentStatusTool reports an agent's current status, role and parent.
type GetAgentStatusTool struct {
	tk *Toolkit
}

func (t *GetAgentStatusTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "get_agent_status",
		Description: "Get the status, role and parent of an agent.",
		Parameters: []ToolParameter{
			{Name: "agentId", Type: TypeString, Description: "Agent to inspect", Required: true},
		},
	}
}

func (t *GetAgentStatusTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	agentID, err := stringArg(args, "agentId")
	if err != nil {
		return errorResult("get_agent_status", err), nil
	}

	agent, err := t.tk.store.GetAgent(agentID)
	if err != nil {
		return errorResult("get_agent_status", err), nil
	}

	parent := agent.ParentID
	if parent == "" {
		parent = "none"
	}
	return successResult("get_agent_status",
		fmt.Sprintf("status=%s role=%s parent=%s", agent.Status, agent.Role, parent)), nil
}

// GetAgentSummaryTool condenses an agent's recent activity.
type GetAgentSummaryTool struct {
	tk *Toolkit
}

func (t *GetAgentSummaryTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "get_agent_summary",
		Description: "Summarize an agent: current objective, last message and assigned task count.",
		Parameters: []ToolParameter{
			{Name: "agentId", Type: TypeString, Description: "Agent to summarize", Required: true},
		},
	}
}

func (t *GetAgentSummaryTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	agentID, err := stringArg(args, "agentId")
	if err != nil {
		return errorResult("get_agent_summary", err), nil
	}

	agent, err := t.tk.store.GetAgent(agentID)
	if err != nil {
		return errorResult("get_agent_summary", err), nil
	}

	tasks, err := t.tk.store.TasksForAgent(agentID)
	if err != nil {
		return errorResult("get_agent_summary", err), nil
	}

	objective := "none"
	for i := len(tasks) - 1; i >= 0; i-- {
		if tasks[i].Objective != "" {
			objective = tasks[i].Objective
			break
		}
	}

	lastMessage := "none"
	if msgs, err := t.tk.store.ReadConversation(agentID, 1, false); err == nil && len(msgs) > 0 {
		lastMessage = msgs[0].Content
	}

	return successResult("get_agent_summary", fmt.Sprintf(
		"agent=%s (%s)\nobjective: %s\nlast message: %s\ntasks assigned: %d",
		agent.Name, agent.Status, objective, lastMessage, len(tasks))), nil
}
