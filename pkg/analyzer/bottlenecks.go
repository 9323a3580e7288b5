package analyzer

import "sort"

// rankBottlenecks reduces the accumulated transitions into an ordered
// bottleneck list: descending average wait, ties broken by descending
// frequency, then from-activity, then to-activity lexical order. The
// rule chain makes the ranking reproducible for inputs that would
// otherwise tie. The result is truncated to topN entries.
func rankBottlenecks(transitions map[transitionKey]*transition, topN int) []Bottleneck {
	ranked := make([]Bottleneck, 0, len(transitions))
	for key, t := range transitions {
		var sum float64
		for _, w := range t.waitHours {
			sum += w
		}
		ranked = append(ranked, Bottleneck{
			FromActivity: key.From,
			ToActivity:   key.To,
			AvgWaitHours: sum / float64(len(t.waitHours)),
			Frequency:    t.count,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AvgWaitHours != b.AvgWaitHours {
			return a.AvgWaitHours > b.AvgWaitHours
		}
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if a.FromActivity != b.FromActivity {
			return a.FromActivity < b.FromActivity
		}
		return a.ToActivity < b.ToActivity
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
