package taskparser

import (
	"strings"

	"github.com/routa-ai/routa/pkg/coordination"
)

// Format renders tasks back into the @@@task grammar. Parsing the result
// yields the same titles and section contents, so Format is the inverse of
// Parse up to ids and timestamps.
func Format(tasks []*coordination.Task) string {
	var sb strings.Builder
	for _, task := range tasks {
		sb.WriteString("@@@task\n")
		sb.WriteString("# ")
		sb.WriteString(task.Title)
		sb.WriteString("\n")

		if task.Objective != "" {
			sb.WriteString("## Objective\n")
			sb.WriteString(task.Objective)
			sb.WriteString("\n")
		}
		writeListSection(&sb, "Scope", task.Scope)
		writeListSection(&sb, "Definition of Done", task.AcceptanceCriteria)
		writeListSection(&sb, "Verification", task.VerificationCommands)

		sb.WriteString("@@@\n\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeListSection(sb *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("## ")
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
}
