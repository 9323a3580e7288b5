// Package analyzer implements the process analysis engine: a
// deterministic batch transformation from a timestamped event log into
// process-mining metrics (duration distribution, dominant variant,
// transition bottlenecks, rework incidence).
//
// The engine is synchronous and stateless. Each call to Analyze either
// returns one complete, internally consistent AnalysisResult or an
// error; it never retries and never returns a partial result.
package analyzer

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// DefaultTopBottlenecks is the bottleneck ranking truncation.
const DefaultTopBottlenecks = 10

// Config controls the engine.
type Config struct {
	// Workers is the number of parallel case reducers. Values below 2
	// select the sequential path. The result is identical either way:
	// rankings are computed only after all shard accumulators merge.
	Workers int

	// TopBottlenecks truncates the bottleneck ranking. Zero means
	// DefaultTopBottlenecks.
	TopBottlenecks int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:        1,
		TopBottlenecks: DefaultTopBottlenecks,
	}
}

// Analyzer runs process analyses over event logs.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	if cfg.TopBottlenecks <= 0 {
		cfg.TopBottlenecks = DefaultTopBottlenecks
	}
	return &Analyzer{cfg: cfg}
}

// Analyze runs the full analysis over a flat event collection.
//
// Events may arrive in any order; they are grouped by case and sorted
// by timestamp before any statistic is computed. The input slice is
// never mutated and not retained after the call returns.
func (a *Analyzer) Analyze(ctx context.Context, events []model.Event) (*AnalysisResult, error) {
	cases, err := indexCases(events)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, dferrors.EmptyLog()
	}

	acc, err := a.reduce(ctx, cases)
	if err != nil {
		return nil, err
	}

	stats := computeDurationStats(caseDurationsHours(cases))
	top := topVariant(acc.variants)

	reworkActivities := make([]string, 0, len(acc.rework))
	for act := range acc.rework {
		reworkActivities = append(reworkActivities, act)
	}
	sort.Strings(reworkActivities)

	return &AnalysisResult{
		NumCases:      len(cases),
		NumEvents:     acc.events,
		NumActivities: len(acc.activities),
		NumVariants:   len(acc.variants),

		MedianDurationHours: stats.Median,
		MeanDurationHours:   stats.Mean,
		P90DurationHours:    stats.P90,
		MinDurationHours:    stats.Min,
		MaxDurationHours:    stats.Max,

		TopVariant:          top.activities,
		TopVariantFrequency: float64(len(top.caseIDs)) / float64(len(cases)),

		Bottlenecks: rankBottlenecks(acc.transitions, a.cfg.TopBottlenecks),

		ReworkActivities: reworkActivities,
		ReworkRate:       float64(acc.reworkCases) / float64(len(cases)),

		ActivityFrequencies: acc.activities,
	}, nil
}

// accumulator holds one worker's reduction state. All of it merges
// associatively and commutatively; order-sensitive selections (variant
// tie-break, bottleneck ranking) happen only after the merge, on the
// documented deterministic rules.
type accumulator struct {
	events      int
	transitions map[transitionKey]*transition
	activities  map[string]int
	variants    map[string]*variantGroup
	rework      map[string]struct{}
	reworkCases int
}

func newAccumulator() *accumulator {
	return &accumulator{
		transitions: make(map[transitionKey]*transition),
		activities:  make(map[string]int),
		variants:    make(map[string]*variantGroup),
		rework:      make(map[string]struct{}),
	}
}

// addCase folds one case into the accumulator. caseIdx is the case's
// position in first-observed processing order.
func (a *accumulator) addCase(caseIdx int, c model.Case) error {
	a.events += len(c.Events)
	for _, e := range c.Events {
		a.activities[e.Activity]++
	}

	if err := addTransitions(a.transitions, c); err != nil {
		return err
	}

	addVariant(a.variants, caseIdx, c)

	if repeated := caseRework(c); len(repeated) > 0 {
		a.reworkCases++
		for _, act := range repeated {
			a.rework[act] = struct{}{}
		}
	}
	return nil
}

// merge folds another shard's accumulator into this one.
func (a *accumulator) merge(b *accumulator) {
	a.events += b.events
	for act, n := range b.activities {
		a.activities[act] += n
	}
	mergeTransitions(a.transitions, b.transitions)
	mergeVariants(a.variants, b.variants)
	for act := range b.rework {
		a.rework[act] = struct{}{}
	}
	a.reworkCases += b.reworkCases
}

// reduce runs the per-case reductions, sharding cases across workers
// when parallelism is configured. Each worker owns an isolated
// accumulator; no shared mutable state crosses case boundaries.
func (a *Analyzer) reduce(ctx context.Context, cases []model.Case) (*accumulator, error) {
	workers := a.cfg.Workers
	if workers < 2 || len(cases) < workers {
		acc := newAccumulator()
		for i, c := range cases {
			select {
			case <-ctx.Done():
				return nil, dferrors.ContextCanceled("analyze")
			default:
			}
			if err := acc.addCase(i, c); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}

	shards := make([]*accumulator, workers)
	chunk := (len(cases) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		end := start + chunk
		if end > len(cases) {
			end = len(cases)
		}
		if start >= end {
			continue
		}

		g.Go(func() error {
			acc := newAccumulator()
			for i := start; i < end; i++ {
				select {
				case <-gctx.Done():
					return dferrors.ContextCanceled("analyze")
				default:
				}
				if err := acc.addCase(i, cases[i]); err != nil {
					return err
				}
			}
			shards[w] = acc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := newAccumulator()
	for _, s := range shards {
		if s != nil {
			merged.merge(s)
		}
	}
	return merged, nil
}
