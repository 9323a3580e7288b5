package analyzer

import (
	"time"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// transitionKey identifies a directly-follows edge between two activities.
type transitionKey struct {
	From string
	To   string
}

// transition accumulates one directly-follows edge while scanning cases:
// an occurrence count plus the wait-time samples observed on that edge.
type transition struct {
	count     int
	waitHours []float64
}

// addTransitions records every consecutive event pair of the case into
// the transition map. Self-loops count like any other edge. A case with
// one event contributes nothing.
//
// The indexer guarantees non-decreasing timestamps, so a negative wait
// sample signals a loader or clock defect and aborts the analysis
// rather than being clamped.
func addTransitions(transitions map[transitionKey]*transition, c model.Case) error {
	for i := 0; i+1 < len(c.Events); i++ {
		cur, next := c.Events[i], c.Events[i+1]

		wait := hoursBetween(cur.Timestamp, next.Timestamp)
		if wait < 0 {
			return dferrors.InvariantViolation("negative wait time between ordered events").
				WithContext("case_id", c.ID).
				WithContext("from", cur.Activity).
				WithContext("to", next.Activity)
		}

		key := transitionKey{From: cur.Activity, To: next.Activity}
		t, ok := transitions[key]
		if !ok {
			t = &transition{}
			transitions[key] = t
		}
		t.count++
		t.waitHours = append(t.waitHours, wait)
	}
	return nil
}

// mergeTransitions folds src into dst. Counts and sample lists are
// associative and commutative, so shard merge order does not affect the
// final ranking.
func mergeTransitions(dst, src map[transitionKey]*transition) {
	for key, s := range src {
		d, ok := dst[key]
		if !ok {
			dst[key] = s
			continue
		}
		d.count += s.count
		d.waitHours = append(d.waitHours, s.waitHours...)
	}
}

// hoursBetween converts a nanosecond interval to fractional hours.
func hoursBetween(from, to int64) float64 {
	return float64(to-from) / float64(time.Hour)
}
