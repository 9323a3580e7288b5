package analyzer

import (
	"testing"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
)

func TestIndexCases_FirstObservedOrder(t *testing.T) {
	events := []model.Event{
		ev("beta", "A", 0),
		ev("alpha", "A", 0),
		ev("beta", "B", 1),
		ev("gamma", "A", 2),
	}

	cases, err := indexCases(events)
	if err != nil {
		t.Fatalf("indexCases failed: %v", err)
	}

	want := []string{"beta", "alpha", "gamma"}
	if len(cases) != len(want) {
		t.Fatalf("got %d cases, want %d", len(cases), len(want))
	}
	for i, id := range want {
		if cases[i].ID != id {
			t.Errorf("cases[%d].ID = %s, want %s", i, cases[i].ID, id)
		}
	}
}

func TestIndexCases_StableSort(t *testing.T) {
	// Two events share a timestamp; their input order must survive.
	events := []model.Event{
		ev("c1", "Second", 1),
		ev("c1", "TieFirst", 0),
		ev("c1", "TieSecond", 0),
	}

	cases, err := indexCases(events)
	if err != nil {
		t.Fatalf("indexCases failed: %v", err)
	}

	got := cases[0].Activities()
	want := []string{"TieFirst", "TieSecond", "Second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("activities = %v, want %v", got, want)
		}
	}
}

func TestIndexCases_SingleEventCase(t *testing.T) {
	cases, err := indexCases([]model.Event{ev("c1", "A", 0)})
	if err != nil {
		t.Fatalf("single-event case must be valid: %v", err)
	}
	if len(cases) != 1 || len(cases[0].Events) != 1 {
		t.Errorf("unexpected indexing: %+v", cases)
	}
	if cases[0].Duration() != 0 {
		t.Errorf("Duration = %v, want 0", cases[0].Duration())
	}
}
