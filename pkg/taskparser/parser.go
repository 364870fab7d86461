// Package taskparser extracts structured task records from @@@task markdown
// blocks embedded in free-form planner output.
package taskparser

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/routa-ai/routa/pkg/coordination"
)

// DefaultTitle is used when a block carries no level-1 header.
const DefaultTitle = "Untitled Task"

var blockPattern = regexp.MustCompile(`(?s)@@@task\s*\n(.*?)\n@@@`)

// Section aliases, case-sensitive, matched in order. The Chinese aliases come
// from the planner prompts, which are bilingual.
var (
	objectiveAliases    = []string{"Objective", "目标", "Goal", "目的"}
	scopeAliases        = []string{"Scope", "范围", "作用域"}
	doneAliases         = []string{"Definition of Done", "完成标准", "验收标准", "Acceptance Criteria", "Done Criteria", "完成条件"}
	verificationAliases = []string{"Verification", "验证", "Verify", "验证方法", "测试验证"}
)

// Parse extracts every task from the @@@task blocks in text, in document
// order. Text with no well-formed block yields an empty list; parsing never
// fails.
func Parse(text, workspaceID string) []*coordination.Task {
	tasks := make([]*coordination.Task, 0)
	for _, match := range blockPattern.FindAllStringSubmatch(text, -1) {
		for _, sub := range splitSubBlocks(match[1]) {
			tasks = append(tasks, parseSubBlock(sub, workspaceID))
		}
	}
	return tasks
}

// splitSubBlocks splits a block body at every level-1 header outside fenced
// code. Zero or one header keeps the block whole; otherwise each header
// starts a new sub-block and any preamble before the first header is dropped.
func splitSubBlocks(body string) []string {
	lines := strings.Split(body, "\n")

	var headerIdx []int
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			headerIdx = append(headerIdx, i)
		}
	}

	if len(headerIdx) <= 1 {
		return []string{body}
	}

	blocks := make([]string, 0, len(headerIdx))
	for n, start := range headerIdx {
		end := len(lines)
		if n+1 < len(headerIdx) {
			end = headerIdx[n+1]
		}
		blocks = append(blocks, strings.Join(lines[start:end], "\n"))
	}
	return blocks
}

func parseSubBlock(block, workspaceID string) *coordination.Task {
	now := time.Now()
	task := &coordination.Task{
		ID:          uuid.NewString(),
		Title:       extractTitle(block),
		Objective:   extractSection(block, objectiveAliases),
		Status:      coordination.TaskPending,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.Scope = extractListSection(block, scopeAliases)
	task.AcceptanceCriteria = extractListSection(block, doneAliases)
	task.VerificationCommands = extractListSection(block, verificationAliases)
	return task
}

// extractTitle returns the first level-1 header outside fenced code. Shell
// comments inside fences would otherwise read as headers.
func extractTitle(block string) string {
	inFence := false
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			if title := strings.TrimSpace(line[2:]); title != "" {
				return title
			}
		}
	}
	return DefaultTitle
}

// extractSection returns the trimmed body under the first "## <alias>" header
// matching any alias, up to the next "##" header or end of block.
func extractSection(block string, aliases []string) string {
	for _, alias := range aliases {
		if body, ok := sectionBody(block, alias); ok {
			return body
		}
	}
	return ""
}

func extractListSection(block string, aliases []string) []string {
	body := extractSection(block, aliases)
	if body == "" {
		return nil
	}

	var items []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
			if item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

func sectionBody(block, alias string) (string, bool) {
	lines := strings.Split(block, "\n")
	inFence := false
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if start == -1 {
			if isSectionHeader(line, alias) {
				start = i + 1
			}
			continue
		}
		if strings.HasPrefix(line, "##") && !strings.HasPrefix(line, "###") {
			return strings.TrimSpace(strings.Join(lines[start:i], "\n")), true
		}
	}
	if start == -1 {
		return "", false
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n")), true
}

func isSectionHeader(line, alias string) bool {
	if !strings.HasPrefix(line, "## ") {
		return false
	}
	header := strings.TrimSpace(line[3:])
	return header == alias || strings.HasPrefix(header, alias+":") || strings.HasPrefix(header, alias+"：")
}
