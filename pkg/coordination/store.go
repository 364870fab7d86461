package coordination

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the coordination state surface. All operations are synchronous;
// implementations must be safe for concurrent use.
type Store interface {
	SaveAgent(agent *Agent) error
	GetAgent(id string) (*Agent, error)
	ListAgents(workspaceID string) ([]*Agent, error)

	SaveTask(task *Task) error
	GetTask(id string) (*Task, error)
	TasksForAgent(agentID string) ([]*Task, error)

	AppendMessage(agentID string, msg ConversationMessage) error
	ReadConversation(agentID string, lastN int, includeToolCalls bool) ([]ConversationMessage, error)

	// InitializeWorkspace idempotently creates the workspace's singleton ROUTA
	// agent and returns its id.
	InitializeWorkspace(workspaceID string) (string, error)
}

// MemoryStore keeps all coordination state in process memory, guarded by a
// single reader-writer lock. Conversation appends additionally serialize
// through a per-agent mutex so wall-clock append order is preserved under
// concurrent writers.
type MemoryStore struct {
	mu            sync.RWMutex
	agents        map[string]*Agent
	agentOrder    []string
	tasks         map[string]*Task
	taskOrder     []string
	conversations map[string][]ConversationMessage

	appendMu sync.Mutex
	appendLk map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents:        make(map[string]*Agent),
		tasks:         make(map[string]*Task),
		conversations: make(map[string][]ConversationMessage),
		appendLk:      make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) SaveAgent(agent *Agent) error {
	if agent == nil || agent.ID == "" {
		return NewError(KindBadInput, "agent id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.agents[agent.ID]
	if exists {
		if !existing.Status.CanTransition(agent.Status) {
			return NewError(KindInvalidState,
				"agent %s: illegal status transition %s -> %s", agent.ID, existing.Status, agent.Status)
		}
	} else {
		if agent.ParentID != "" {
			parent, ok := s.agents[agent.ParentID]
			if !ok || parent.WorkspaceID != agent.WorkspaceID {
				return NewError(KindNotFound,
					"parent agent %s not found in workspace %s", agent.ParentID, agent.WorkspaceID)
			}
		}
		s.agentOrder = append(s.agentOrder, agent.ID)
	}

	clone := *agent
	clone.UpdatedAt = time.Now()
	if exists {
		// Creation time and lineage are immutable; callers routinely re-save
		// partially populated structs for status updates.
		clone.CreatedAt = existing.CreatedAt
		clone.WorkspaceID = existing.WorkspaceID
		clone.ParentID = existing.ParentID
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = clone.UpdatedAt
	}
	s.agents[agent.ID] = &clone
	return nil
}

func (s *MemoryStore) GetAgent(id string) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[id]
	if !ok {
		return nil, NewError(KindNotFound, "agent %s not found", id)
	}
	clone := *agent
	return &clone, nil
}

func (s *MemoryStore) ListAgents(workspaceID string) ([]*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]*Agent, 0)
	for _, id := range s.agentOrder {
		agent := s.agents[id]
		if agent.WorkspaceID == workspaceID {
			clone := *agent
			agents = append(agents, &clone)
		}
	}
	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})
	return agents, nil
}

func (s *MemoryStore) SaveTask(task *Task) error {
	if task == nil || task.ID == "" {
		return NewError(KindBadInput, "task id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if task.AssignedTo != "" {
		if _, ok := s.agents[task.AssignedTo]; !ok {
			return NewError(KindNotFound, "assigned agent %s not found", task.AssignedTo)
		}
	}

	existing, exists := s.tasks[task.ID]
	if exists {
		if !existing.Status.CanTransition(task.Status) {
			return NewError(KindInvalidState,
				"task %s: illegal status transition %s -> %s", task.ID, existing.Status, task.Status)
		}
	} else {
		s.taskOrder = append(s.taskOrder, task.ID)
	}

	clone := *task
	clone.UpdatedAt = time.Now()
	if exists {
		clone.CreatedAt = existing.CreatedAt
		clone.WorkspaceID = existing.WorkspaceID
	} else if clone.CreatedAt.IsZero() {
		clone.CreatedAt = clone.UpdatedAt
	}
	s.tasks[task.ID] = &clone
	return nil
}

func (s *MemoryStore) GetTask(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, NewError(KindNotFound, "task %s not found", id)
	}
	clone := *task
	return &clone, nil
}

func (s *MemoryStore) TasksForAgent(agentID string) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*Task, 0)
	for _, id := range s.taskOrder {
		task := s.tasks[id]
		if task.AssignedTo == agentID {
			clone := *task
			tasks = append(tasks, &clone)
		}
	}
	return tasks, nil
}

// lockFor returns the append mutex for an agent, creating it on first use.
func (s *MemoryStore) lockFor(agentID string) *sync.Mutex {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	lk, ok := s.appendLk[agentID]
	if !ok {
		lk = &sync.Mutex{}
		s.appendLk[agentID] = lk
	}
	return lk
}

func (s *MemoryStore) AppendMessage(agentID string, msg ConversationMessage) error {
	if agentID == "" {
		return NewError(KindBadInput, "agent id is required")
	}

	lk := s.lockFor(agentID)
	lk.Lock()
	defer lk.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.AgentID = agentID

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[agentID]; !ok {
		return NewError(KindNotFound, "agent %s not found", agentID)
	}
	s.conversations[agentID] = append(s.conversations[agentID], msg)
	return nil
}

func (s *MemoryStore) ReadConversation(agentID string, lastN int, includeToolCalls bool) ([]ConversationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.agents[agentID]; !ok {
		return nil, NewError(KindNotFound, "agent %s not found", agentID)
	}

	all := s.conversations[agentID]
	msgs := make([]ConversationMessage, 0, len(all))
	for _, msg := range all {
		if !includeToolCalls && (msg.Kind == MessageToolCall || msg.Kind == MessageToolResult) {
			continue
		}
		msgs = append(msgs, msg)
	}

	if lastN > 0 && len(msgs) > lastN {
		msgs = msgs[len(msgs)-lastN:]
	}
	return msgs, nil
}

func (s *MemoryStore) InitializeWorkspace(workspaceID string) (string, error) {
	if workspaceID == "" {
		return "", NewError(KindBadInput, "workspace id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.agentOrder {
		agent := s.agents[id]
		if agent.WorkspaceID == workspaceID && agent.Role == RoleRouta {
			return agent.ID, nil
		}
	}

	now := time.Now()
	routa := &Agent{
		ID:          uuid.NewString(),
		Name:        "routa",
		Role:        RoleRouta,
		WorkspaceID: workspaceID,
		Status:      AgentActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.agents[routa.ID] = routa
	s.agentOrder = append(s.agentOrder, routa.ID)
	return routa.ID, nil
}

var _ Store = (*MemoryStore)(nil)
