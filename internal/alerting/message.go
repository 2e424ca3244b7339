package alerting

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

func section(text string) goslack.Block {
	return goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false), nil, nil)
}

// BuildSLABreachMessage builds the alert for a PendingReview whose SLA
// deadline has passed (spec §4.6: "on SLA breach ... emits an operator
// alert").
func BuildSLABreachMessage(reviewID string, priority int, domain string) []goslack.Block {
	text := fmt.Sprintf(
		":rotating_light: *SLA breached* for review `%s`\npriority: %d · domain: %s",
		reviewID, priority, domain,
	)
	return []goslack.Block{section(text)}
}

// BuildStuckWorkItemMessage builds the alert for a work item forced into
// PENDING_REVIEW after exhausting its retry cap while stuck (spec §4.3).
func BuildStuckWorkItemMessage(workItemID, traceID, state string) []goslack.Block {
	text := fmt.Sprintf(
		":warning: *Work item stuck* `%s` (trace `%s`)\nstate: %s — forced to PENDING_REVIEW after exhausting retries",
		workItemID, traceID, state,
	)
	return []goslack.Block{section(text)}
}

// BuildPersistentErrorMessage builds the alert for a work item that keeps
// failing a collaborator call after exhausting its retry cap (spec §4.8).
func BuildPersistentErrorMessage(workItemID, traceID, lastError string) []goslack.Block {
	text := fmt.Sprintf(
		":x: *Persistent error* on work item `%s` (trace `%s`)\n%s",
		workItemID, traceID, lastError,
	)
	return []goslack.Block{section(text)}
}
