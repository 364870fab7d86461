// Package orchestrator drives the three-role pipeline: a planner produces
// tasks, crafters implement them, and a gate issues the final verdict.
package orchestrator

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

// DebugLogCapacity bounds the ring buffer; the oldest entries fall off.
const DebugLogCapacity = 500

// DebugLog is a bounded ring of orchestration breadcrumbs: phase
// transitions, task parses, agent starts and completions, prompt previews,
// stream opens and closes, interrupts and errors. It is owned by one
// orchestrator instance and never shared across workspaces.
type DebugLog struct {
	mu      sync.Mutex
	entries []string
	start   int
	count   int
}

func NewDebugLog() *DebugLog {
	return &DebugLog{entries: make([]string, DebugLogCapacity)}
}

// Add appends a formatted entry, evicting the oldest when full.
func (d *DebugLog) Add(format string, args ...any) {
	entry := fmt.Sprintf("%s %s", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))

	d.mu.Lock()
	defer d.mu.Unlock()

	idx := (d.start + d.count) % len(d.entries)
	d.entries[idx] = entry
	if d.count < len(d.entries) {
		d.count++
	} else {
		d.start = (d.start + 1) % len(d.entries)
	}
}

// Entries returns the buffered entries oldest-first.
func (d *DebugLog) Entries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, d.count)
	for i := 0; i < d.count; i++ {
		out = append(out, d.entries[(d.start+i)%len(d.entries)])
	}
	return out
}

// Len returns the number of buffered entries.
func (d *DebugLog) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// preview truncates prompt text for the debug log, cutting on a rune
// boundary so multi-byte text stays valid UTF-8.
func preview(text string) string {
	const max = 80
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
