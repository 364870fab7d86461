package agenttools

import (
	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/registry"
)

// Toolkit binds the coordination store and event bus to the tool set.
type Toolkit struct {
	store coordination.Store
	bus   *coordination.EventBus
}

func NewToolkit(store coordination.Store, bus *coordination.EventBus) *Toolkit {
	return &Toolkit{store: store, bus: bus}
}

// All returns every coordination tool backed by this toolkit.
func (tk *Toolkit) All() []Tool {
	return []Tool{
		&ListAgentsTool{tk},
		&CreateAgentTool{tk},
		&GetAgentStatusTool{tk},
		&GetAgentSummaryTool{tk},
		&ReadConversationTool{tk},
		&MessageAgentTool{tk},
		&DelegateTaskTool{tk},
		&ReportToParentTool{tk},
		&WakeOrCreateTaskAgentTool{tk},
		&SendMessageToTaskAgentTool{tk},
		&SubscribeToEventsTool{tk},
		&UnsubscribeFromEventsTool{tk},
	}
}

// Registry is a name-keyed tool table.
type Registry struct {
	*registry.BaseRegistry[Tool]
}

func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Tool]()}
}

// NewToolkitRegistry returns a registry pre-populated with the full tool set.
func NewToolkitRegistry(tk *Toolkit) *Registry {
	reg := NewRegistry()
	for _, tool := range tk.All() {
		reg.Set(tool.GetInfo().Name, tool)
	}
	return reg
}

// publish emits a coordination event, tolerating a nil bus for callers that
// only need the store-backed behavior.
func (tk *Toolkit) publish(eventType, sourceAgentID string, payload map[string]string) {
	if tk.bus == nil {
		return
	}
	tk.bus.Publish(coordination.Event{
		Type:          eventType,
		Payload:       payload,
		SourceAgentID: sourceAgentID,
	})
}
