package agenttools

import (
	"context"

	"github.com/routa-ai/routa/pkg/coordination"
)

// SubscribeToEventsTool opens a filtered event subscription.
type SubscribeToEventsTool struct {
	tk *Toolkit
}

func (t *SubscribeToEventsTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "subscribe_to_events",
		Description: "Subscribe to coordination events by type glob, e.g. \"agent.*\" or \"*\". Returns the subscription id.",
		Parameters: []ToolParameter{
			{Name: "agentId", Type: TypeString, Description: "Subscribing agent id", Required: true},
			{Name: "agentName", Type: TypeString, Description: "Subscriber display name", Required: true},
			{Name: "eventTypes", Type: TypeList, Description: "Event type globs to match", Required: true},
			{Name: "excludeSelf", Type: TypeBoolean, Description: "Skip events the subscriber emitted itself", Required: false},
		},
	}
}

func (t *SubscribeToEventsTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	agentID, err := stringArg(args, "agentId")
	if err != nil {
		return errorResult("subscribe_to_events", err), nil
	}
	agentName, err := stringArg(args, "agentName")
	if err != nil {
		return errorResult("subscribe_to_events", err), nil
	}
	globs := stringListArg(args, "eventTypes")
	if len(globs) == 0 {
		return errorResult("subscribe_to_events",
			coordination.NewError(coordination.KindBadInput, "eventTypes must contain at least one glob")), nil
	}

	sub := t.tk.bus.Subscribe(agentID, agentName, globs, boolArg(args, "excludeSelf", false))
	t.tk.publish(coordination.EventSubscriptionCreated, agentID, map[string]string{
		"subscription_id": sub.ID,
	})
	return successResult("subscribe_to_events", sub.ID), nil
}

// UnsubscribeFromEventsTool releases a subscription. Releasing an unknown or
// already released id succeeds.
type UnsubscribeFromEventsTool struct {
	tk *Toolkit
}

func (t *UnsubscribeFromEventsTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "unsubscribe_from_events",
		Description: "Release an event subscription by id.",
		Parameters: []ToolParameter{
			{Name: "subscriptionId", Type: TypeString, Description: "Subscription to release", Required: true},
		},
	}
}

func (t *UnsubscribeFromEventsTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	subscriptionID, err := stringArg(args, "subscriptionId")
	if err != nil {
		return errorResult("unsubscribe_from_events", err), nil
	}
	t.tk.bus.Unsubscribe(subscriptionID)
	return successResult("unsubscribe_from_events", "unsubscribed"), nil
}
