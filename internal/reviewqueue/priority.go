// Package reviewqueue is the durable human-review backstop for mentions
// the matcher and agent workflow could not resolve on their own: a durable
// PendingReview store plus an in-memory priority index (spec §4.6).
package reviewqueue

import (
	"slices"
	"time"

	"github.com/researchgraph/canonmatch/internal/config"
)

const minPriority, maxPriority = 1, 10

func clampPriority(p int) int {
	return max(minPriority, min(maxPriority, p))
}

// Score computes a review's priority (1=most urgent, 10=least) from spec
// §4.6's formula: a base of 5, adjusted by match confidence, the candidate
// concept's mention count, whether the domain is critical, and whether the
// item has aged past the escalation window — then clamped to [1, 10].
func Score(cfg config.PriorityConfig, matchConfidence float64, candidateMentionCount int, domain string, pendingSince, now time.Time) int {
	score := 5
	score += int((1 - matchConfidence) * 5)
	if candidateMentionCount > 10 {
		score--
	}
	if slices.Contains(cfg.CriticalDomains, domain) {
		score -= 2
	}
	if now.Sub(pendingSince) > time.Duration(cfg.AgeEscalationDays)*24*time.Hour {
		score -= 3
	}
	return clampPriority(score)
}

// SLADeadline returns the deadline for a review of the given priority,
// computed from now (spec §4.6's priority-banded SLA hours).
func SLADeadline(cfg config.SLAHoursConfig, priority int, now time.Time) time.Time {
	return now.Add(time.Duration(cfg.Hours(priority)) * time.Hour)
}

// EscalatePriority raises urgency by 3 levels (lower value = more urgent)
// on SLA breach, clamped to the valid range (spec §4.6).
func EscalatePriority(priority int) int {
	return clampPriority(priority - 3)
}
