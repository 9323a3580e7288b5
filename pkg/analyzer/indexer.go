package analyzer

import (
	"sort"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// indexCases groups a flat event collection by case id and sorts each
// case's events by timestamp. The returned slice preserves the order in
// which case ids were first observed; that order is the tie-break order
// for variant ranking.
//
// The sort is stable, so two events sharing a timestamp keep their
// original relative order. A case with a single event is valid and
// yields a zero-duration case.
func indexCases(events []model.Event) ([]model.Case, error) {
	index := make(map[string]int, 64)
	cases := make([]model.Case, 0, 64)

	for i, e := range events {
		if e.CaseID == "" {
			return nil, dferrors.MalformedEvent("case_id", i)
		}
		if e.Activity == "" {
			return nil, dferrors.MalformedEvent("activity", i)
		}

		pos, ok := index[e.CaseID]
		if !ok {
			pos = len(cases)
			index[e.CaseID] = pos
			cases = append(cases, model.Case{ID: e.CaseID})
		}
		cases[pos].Events = append(cases[pos].Events, e)
	}

	for i := range cases {
		evs := cases[i].Events
		sort.SliceStable(evs, func(a, b int) bool {
			return evs[a].Timestamp < evs[b].Timestamp
		})
	}

	return cases, nil
}
