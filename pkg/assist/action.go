// Package assist drafts task text with an external text-generation service.
package assist

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/errors"
)

// Action selects what the service is asked to write about a task.
type Action string

const (
	ExpandDescription Action = "Expand Description"
	GenerateSubtasks  Action = "Generate Sub-tasks"
	BrainstormRisks   Action = "Brainstorm Risks"
	DraftStatus       Action = "Draft Status Update"
)

// Actions lists the supported actions in menu order.
var Actions = []Action{ExpandDescription, GenerateSubtasks, BrainstormRisks, DraftStatus}

var actionAliases = map[string]Action{
	"expand":      ExpandDescription,
	"description": ExpandDescription,
	"subtasks":    GenerateSubtasks,
	"sub-tasks":   GenerateSubtasks,
	"risks":       BrainstormRisks,
	"status":      DraftStatus,
}

// ParseAction accepts an action's full name or a short alias such as "risks".
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	for _, a := range Actions {
		if strings.EqualFold(s, string(a)) {
			return a, nil
		}
	}
	if a, ok := actionAliases[strings.ToLower(s)]; ok {
		return a, nil
	}
	return "", errors.Validation("unknown assist action %q: must be expand, subtasks, risks or status", s)
}

// Prompt builds the request text for action on the named task.
func Prompt(action Action, name string) string {
	switch action {
	case ExpandDescription:
		return fmt.Sprintf("Expand on the task '%s' for a project management context. Provide a detailed description.", name)
	case GenerateSubtasks:
		return fmt.Sprintf("Break down the task '%s' into smaller, actionable sub-tasks. List them as bullet points.", name)
	case BrainstormRisks:
		return fmt.Sprintf("What are potential risks and mitigation strategies for a project task named '%s'? List them clearly.", name)
	case DraftStatus:
		return fmt.Sprintf("Draft a concise status update for a task named '%s'. Assume it's 'In Progress', UI is done, backend is 50%%.", name)
	}
	return fmt.Sprintf("Generate content for the task '%s' related to %s.", name, action)
}

func boilerplate(name string) []string {
	return []string{
		fmt.Sprintf("Detailed description for '%s':\n\n", name),
		fmt.Sprintf("Sub-tasks for '%s':\n\n", name),
		fmt.Sprintf("Potential risks for '%s':\n\n", name),
		fmt.Sprintf("Status Update for '%s':\n\n", name),
		"Here is the detailed description:",
		"Here are the sub-tasks:",
		"Here are the potential risks:",
		"Here is the draft status update:",
		"Certainly, here is the content:",
		"```markdown\n",
		"```",
	}
}

// Clean strips known boilerplate lead-ins, trailers and code fences from generated text.
func Clean(name, text string) string {
	text = strings.TrimSpace(text)
	for _, p := range boilerplate(name) {
		if strings.HasPrefix(text, p) {
			text = strings.TrimSpace(text[len(p):])
		}
		if trimmed := strings.TrimSpace(p); trimmed != "" && strings.HasSuffix(text, trimmed) {
			text = strings.TrimSpace(text[:len(text)-len(trimmed)])
		}
	}
	return text
}

var sectionHeaders = map[Action]string{
	GenerateSubtasks: "--- AI Suggested Sub-tasks ---",
	BrainstormRisks:  "--- AI Brainstormed Risks ---",
	DraftStatus:      "--- AI Drafted Status Update ---",
}

// Apply merges generated text into a field's current value. Expand replaces
// the value; the other actions append under a section header.
func Apply(action Action, current, generated string) (string, error) {
	generated = strings.TrimSpace(generated)
	if generated == "" || strings.HasPrefix(generated, "Error:") {
		return current, errors.Validation("no valid AI content to apply")
	}
	header, ok := sectionHeaders[action]
	if !ok {
		return generated, nil
	}
	if strings.TrimSpace(current) == "" {
		return header + "\n" + generated, nil
	}
	return current + "\n\n" + header + "\n" + generated, nil
}
