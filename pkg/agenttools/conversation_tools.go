package agenttools

import (
	"context"
	"fmt"
	"strings"

	"github.com/routa-ai/routa/pkg/coordination"
)

// ReadConversationTool returns an agent's conversation in chronological order.
type ReadConversationTool struct {
	tk *Toolkit
}

func (t *ReadConversationTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "read_agent_conversation",
		Description: "Read an agent's conversation history, most recent last.",
		Parameters: []ToolParameter{
			{Name: "agentId", Type: TypeString, Description: "Agent whose conversation to read", Required: true},
			{Name: "lastN", Type: TypeInteger, Description: "Limit to the last N messages (0 = all)", Required: false},
			{Name: "includeToolCalls", Type: TypeBoolean, Description: "Include TOOL_CALL and TOOL_RESULT entries", Required: false},
		},
	}
}

func (t *ReadConversationTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	agentID, err := stringArg(args, "agentId")
	if err != nil {
		return errorResult("read_agent_conversation", err), nil
	}
	lastN := intArg(args, "lastN", 0)
	includeToolCalls := boolArg(args, "includeToolCalls", false)

	msgs, err := t.tk.store.ReadConversation(agentID, lastN, includeToolCalls)
	if err != nil {
		return errorResult("read_agent_conversation", err), nil
	}
	if len(msgs) == 0 {
		return successResult("read_agent_conversation", "No messages"), nil
	}

	var sb strings.Builder
	for _, msg := range msgs {
		from := msg.FromAgentID
		if from == "" {
			from = string(msg.Kind)
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), from, msg.Content)
	}
	return successResult("read_agent_conversation", strings.TrimRight(sb.String(), "\n")), nil
}

// MessageAgentTool appends a USER message to the recipient's conversation.
type MessageAgentTool struct {
	tk *Toolkit
}

func (t *MessageAgentTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "message_agent",
		Description: "Send a message to another agent. The message lands in the recipient's conversation as user input.",
		Parameters: []ToolParameter{
			{Name: "fromAgentId", Type: TypeString, Description: "Sender agent id", Required: true},
			{Name: "toAgentId", Type: TypeString, Description: "Recipient agent id", Required: true},
			{Name: "message", Type: TypeString, Description: "Message content", Required: true},
		},
	}
}

func (t *MessageAgentTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	fromID, err := stringArg(args, "fromAgentId")
	if err != nil {
		return errorResult("message_agent", err), nil
	}
	toID, err := stringArg(args, "toAgentId")
	if err != nil {
		return errorResult("message_agent", err), nil
	}
	message, err := stringArg(args, "message")
	if err != nil {
		return errorResult("message_agent", err), nil
	}

	if err := t.tk.store.AppendMessage(toID, coordination.ConversationMessage{
		FromAgentID: fromID,
		Content:     message,
		Kind:        coordination.MessageUser,
	}); err != nil {
		return errorResult("message_agent", err), nil
	}

	t.tk.publish(coordination.EventMessageSent, fromID, map[string]string{
		"from": fromID,
		"to":   toID,
	})
	return successResult("message_agent", fmt.Sprintf("Message delivered to %s", toID)), nil
}
