package coordination

import (
	"fmt"
	"strings"
	"time"
)

// AgentRole tags the three agent kinds. Roles share the same operations;
// behavior differences live in per-role prompt and iteration-budget tables.
type AgentRole string

const (
	RoleRouta   AgentRole = "ROUTA"
	RoleCrafter AgentRole = "CRAFTER"
	RoleGate    AgentRole = "GATE"
)

// ParseRole strictly parses a role string, rejecting unknown values.
func ParseRole(s string) (AgentRole, error) {
	switch AgentRole(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleRouta:
		return RoleRouta, nil
	case RoleCrafter:
		return RoleCrafter, nil
	case RoleGate:
		return RoleGate, nil
	default:
		return "", NewError(KindBadInput, "unknown agent role: %q (valid: ROUTA, CRAFTER, GATE)", s)
	}
}

type ModelTier string

const (
	TierFast     ModelTier = "FAST"
	TierBalanced ModelTier = "BALANCED"
	TierSmart    ModelTier = "SMART"
)

func ParseModelTier(s string) (ModelTier, error) {
	switch ModelTier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierFast:
		return TierFast, nil
	case TierBalanced:
		return TierBalanced, nil
	case TierSmart:
		return TierSmart, nil
	default:
		return "", NewError(KindBadInput, "unknown model tier: %q (valid: FAST, BALANCED, SMART)", s)
	}
}

type AgentStatus string

const (
	AgentPending   AgentStatus = "PENDING"
	AgentActive    AgentStatus = "ACTIVE"
	AgentCompleted AgentStatus = "COMPLETED"
	AgentError     AgentStatus = "ERROR"
	AgentCancelled AgentStatus = "CANCELLED"
)

// agentStatusRank orders statuses along the allowed forward direction.
// PENDING → ACTIVE → {COMPLETED | ERROR | CANCELLED}; terminal states share a rank.
var agentStatusRank = map[AgentStatus]int{
	AgentPending:   0,
	AgentActive:    1,
	AgentCompleted: 2,
	AgentError:     2,
	AgentCancelled: 2,
}

// CanTransition reports whether moving from s to next is a forward transition.
func (s AgentStatus) CanTransition(next AgentStatus) bool {
	from, ok := agentStatusRank[s]
	if !ok {
		return false
	}
	to, ok := agentStatusRank[next]
	if !ok {
		return false
	}
	if from == to {
		return s == next
	}
	return to > from
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
)

var taskStatusRank = map[TaskStatus]int{
	TaskPending:    0,
	TaskInProgress: 1,
	TaskCompleted:  2,
	TaskFailed:     2,
}

func (s TaskStatus) CanTransition(next TaskStatus) bool {
	from, ok := taskStatusRank[s]
	if !ok {
		return false
	}
	to, ok := taskStatusRank[next]
	if !ok {
		return false
	}
	if from == to {
		return s == next
	}
	return to > from
}

// Agent is a coordination participant. Exactly one ROUTA exists per workspace.
type Agent struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Role        AgentRole   `json:"role"`
	WorkspaceID string      `json:"workspace_id"`
	ParentID    string      `json:"parent_id,omitempty"`
	ModelTier   ModelTier   `json:"model_tier,omitempty"`
	Status      AgentStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Task is a discrete unit of delegated work produced by the task parser or
// the A2A create_task command.
type Task struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Objective            string     `json:"objective"`
	Scope                []string   `json:"scope,omitempty"`
	AcceptanceCriteria   []string   `json:"acceptance_criteria,omitempty"`
	VerificationCommands []string   `json:"verification_commands,omitempty"`
	AssignedTo           string     `json:"assigned_to,omitempty"`
	Status               TaskStatus `json:"status"`
	WorkspaceID          string     `json:"workspace_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type MessageKind string

const (
	MessageUser       MessageKind = "USER"
	MessageAssistant  MessageKind = "ASSISTANT"
	MessageToolCall   MessageKind = "TOOL_CALL"
	MessageToolResult MessageKind = "TOOL_RESULT"
	MessageSystem     MessageKind = "SYSTEM"
)

// ConversationMessage is one entry in an agent's append-only conversation.
type ConversationMessage struct {
	AgentID     string      `json:"agent_id"`
	FromAgentID string      `json:"from_agent_id,omitempty"`
	Content     string      `json:"content"`
	Kind        MessageKind `json:"kind"`
	Timestamp   time.Time   `json:"timestamp"`
}

// CompletionReport is produced by a worker agent for its parent when a task ends.
type CompletionReport struct {
	AgentID       string   `json:"agent_id"`
	TaskID        string   `json:"task_id"`
	Summary       string   `json:"summary"`
	FilesModified []string `json:"files_modified,omitempty"`
	Success       bool     `json:"success"`
}

func (r CompletionReport) String() string {
	status := "FAILED"
	if r.Success {
		status = "COMPLETED"
	}
	return fmt.Sprintf("[%s] task %s: %s", status, r.TaskID, r.Summary)
}

// Event is an ephemeral coordination notification. Events are delivered to
// matching live subscribers and never persisted.
type Event struct {
	Type          string            `json:"type"`
	Payload       map[string]string `json:"payload,omitempty"`
	SourceAgentID string            `json:"source_agent_id,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Well-known event types emitted by the coordination tools.
const (
	EventAgentCreated        = "agent.created"
	EventAgentStatus         = "agent.status"
	EventMessageSent         = "message.sent"
	EventTaskCreated         = "task.created"
	EventTaskDelegated       = "task.delegated"
	EventTaskCompleted       = "task.completed"
	EventSubscriptionCreated = "subscription.created"
)
