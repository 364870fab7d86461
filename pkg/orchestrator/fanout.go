package orchestrator

import (
	"sync"
)

// fanoutBuffer is the per-subscriber channel depth for crafter output.
const fanoutBuffer = 16

// StreamFanout distributes per-task crafter output to independent
// subscribers keyed by task id. Used in parallel mode so observers of one
// task never block another task's stream.
type StreamFanout struct {
	mu   sync.RWMutex
	subs map[string][]chan string
}

func NewStreamFanout() *StreamFanout {
	return &StreamFanout{subs: make(map[string][]chan string)}
}

// Subscribe returns a channel carrying output for one task. The channel
// closes when the task's stream closes.
func (f *StreamFanout) Subscribe(taskID string) <-chan string {
	ch := make(chan string, fanoutBuffer)
	f.mu.Lock()
	f.subs[taskID] = append(f.subs[taskID], ch)
	f.mu.Unlock()
	return ch
}

// Publish delivers a piece of output to the task's subscribers without
// blocking; a slow subscriber loses the piece.
func (f *StreamFanout) Publish(taskID, output string) {
	f.mu.RLock()
	channels := f.subs[taskID]
	f.mu.RUnlock()

	for _, ch := range channels {
		select {
		case ch <- output:
		default:
		}
	}
}

// CloseTask closes and forgets the task's subscriber channels.
func (f *StreamFanout) CloseTask(taskID string) {
	f.mu.Lock()
	channels := f.subs[taskID]
	delete(f.subs, taskID)
	f.mu.Unlock()

	for _, ch := range channels {
		close(ch)
	}
}

// Close releases every subscriber.
func (f *StreamFanout) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[string][]chan string)
	f.mu.Unlock()

	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
}
