package workspace

import (
	"sync"
)

// CancelRegistry tracks cooperative cancellation flags per agent id. The
// loop checks its flag at iteration boundaries and before each emitted
// chunk; Interrupt flips it from any goroutine.
type CancelRegistry struct {
	mu     sync.RWMutex
	active map[string]*cancelFlag
}

type cancelFlag struct {
	mu        sync.Mutex
	cancelled bool
}

func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{active: make(map[string]*cancelFlag)}
}

// Activate registers an agent as running with a clear flag.
func (r *CancelRegistry) Activate(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[agentID] = &cancelFlag{}
}

// Interrupt requests cancellation for a running agent. Unknown ids are a
// no-op.
func (r *CancelRegistry) Interrupt(agentID string) {
	r.mu.RLock()
	flag, ok := r.active[agentID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	flag.mu.Lock()
	flag.cancelled = true
	flag.mu.Unlock()
}

// InterruptAll flags every active agent.
func (r *CancelRegistry) InterruptAll() {
	r.mu.RLock()
	flags := make([]*cancelFlag, 0, len(r.active))
	for _, flag := range r.active {
		flags = append(flags, flag)
	}
	r.mu.RUnlock()

	for _, flag := range flags {
		flag.mu.Lock()
		flag.cancelled = true
		flag.mu.Unlock()
	}
}

// IsCancelled reports whether the agent was interrupted.
func (r *CancelRegistry) IsCancelled(agentID string) bool {
	r.mu.RLock()
	flag, ok := r.active[agentID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	flag.mu.Lock()
	defer flag.mu.Unlock()
	return flag.cancelled
}

// Deactivate removes an agent's flag once its loop exits.
func (r *CancelRegistry) Deactivate(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, agentID)
}

// Active returns the ids of agents currently registered.
func (r *CancelRegistry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown clears every flag; used when the runtime stops.
func (r *CancelRegistry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = make(map[string]*cancelFlag)
}
