package workspace

import (
	"fmt"
	"strings"

	"github.com/routa-ai/routa/pkg/agenttools"
)

// BuildSystemPrompt renders the text-based tool-call protocol for a set of
// tools. The model receives no native tool definitions; it is instructed to
// emit <tool_call> blocks instead.
func BuildSystemPrompt(role string, tools []agenttools.ToolInfo) string {
	var sb strings.Builder
	if role != "" {
		sb.WriteString(role)
		sb.WriteString("\n\n")
	}

	sb.WriteString("You can use tools by emitting a tool call in this exact format:\n\n")
	sb.WriteString("<tool_call>\n{\"name\": \"<tool>\", \"arguments\": {\"<key>\": <value>}}\n</tool_call>\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Emit at most one batch of tool calls per reply, then wait for <tool_result> blocks.\n")
	sb.WriteString("- When you have the final answer, reply in plain text without any tool call.\n\n")

	if len(tools) > 0 {
		sb.WriteString("Available tools:\n\n")
		for _, info := range tools {
			fmt.Fprintf(&sb, "## %s\n%s\n", info.Name, info.Description)
			for _, param := range info.Parameters {
				required := "optional"
				if param.Required {
					required = "required"
				}
				fmt.Fprintf(&sb, "- %s (%s, %s): %s\n", param.Name, param.Type, required, param.Description)
			}
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
