// Package observability publishes and replays the engine's work-item
// state-transition events (spec §6: "structured events ... sufficient to
// reconstruct history from the stream alone"), adapted from the teacher's
// persist-then-notify event publisher.
package observability

import "time"

// Event is one recorded state transition (mirrors ent/schema/event.go).
type Event struct {
	ID         string
	TraceID    string
	WorkItemID string
	FromState  string
	ToState    string
	Reason     string
	UserID     *string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Channel derives the Postgres NOTIFY channel for a trace id, so a
// subscriber can follow a single work item's progress without filtering
// the full event stream.
func Channel(traceID string) string {
	return "canonmatch_trace_" + traceID
}

// GlobalChannel is notified on every event regardless of trace, for
// operator dashboards that watch the whole engine.
const GlobalChannel = "canonmatch_events"
