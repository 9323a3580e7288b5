package analyzer

import "github.com/albertodiazdurana/devflow-analyzer/internal/model"

// caseRework returns the activities occurring more than once within the
// case, or nil when the case has no rework.
func caseRework(c model.Case) []string {
	counts := make(map[string]int, len(c.Events))
	for _, e := range c.Events {
		counts[e.Activity]++
	}

	var repeated []string
	for _, e := range c.Events {
		if counts[e.Activity] > 1 {
			repeated = append(repeated, e.Activity)
			counts[e.Activity] = 0 // report each activity once
		}
	}
	return repeated
}
