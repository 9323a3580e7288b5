// Package model defines core data structures for DevFlow Analyzer.
package model

import "time"

// Event represents a single process mining event: one timestamped
// activity occurrence within a case.
// Timestamps are stored as int64 nanoseconds since Unix epoch.
type Event struct {
	// CaseID identifies the process instance (trace).
	CaseID string

	// Activity is the event name/activity label.
	Activity string

	// Timestamp in nanoseconds since Unix epoch.
	Timestamp int64

	// Resource is the actor/resource performing the activity. Optional.
	Resource string

	// Attributes holds additional key-value pairs carried through from
	// the source. Optional, not interpreted by the engine.
	Attributes map[string]string
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	return time.Unix(0, e.Timestamp)
}

// Case is a case identifier plus the ordered sequence of its events.
// After indexing, events are non-decreasing in timestamp.
type Case struct {
	ID     string
	Events []Event
}

// Duration returns the case duration (last event minus first event).
// A single-event case has duration zero.
func (c Case) Duration() time.Duration {
	if len(c.Events) < 2 {
		return 0
	}
	return time.Duration(c.Events[len(c.Events)-1].Timestamp - c.Events[0].Timestamp)
}

// Activities returns the ordered activity names of the case, timestamps
// stripped. This is the case's variant skeleton.
func (c Case) Activities() []string {
	acts := make([]string, len(c.Events))
	for i, e := range c.Events {
		acts[i] = e.Activity
	}
	return acts
}
