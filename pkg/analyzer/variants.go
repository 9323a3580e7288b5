package analyzer

import (
	"strings"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
)

// variantSep joins activity names into a variant key. The unit
// separator cannot appear in activity labels coming from the supported
// loaders, so distinct skeletons never collide.
const variantSep = "\x1f"

// variantGroup collects the cases sharing one activity skeleton.
type variantGroup struct {
	activities []string
	caseIDs    []string

	// firstCase is the smallest case-processing index among the
	// constituent cases; it decides ties in the dominant-variant
	// selection.
	firstCase int
}

// addVariant records the case under its activity-skeleton key.
// caseIdx is the case's position in first-observed processing order.
func addVariant(variants map[string]*variantGroup, caseIdx int, c model.Case) {
	activities := c.Activities()
	key := strings.Join(activities, variantSep)

	g, ok := variants[key]
	if !ok {
		g = &variantGroup{activities: activities, firstCase: caseIdx}
		variants[key] = g
	} else if caseIdx < g.firstCase {
		g.firstCase = caseIdx
	}
	g.caseIDs = append(g.caseIDs, c.ID)
}

// mergeVariants folds src into dst, keeping the smallest firstCase so
// the tie-break stays independent of shard merge order.
func mergeVariants(dst, src map[string]*variantGroup) {
	for key, s := range src {
		d, ok := dst[key]
		if !ok {
			dst[key] = s
			continue
		}
		d.caseIDs = append(d.caseIDs, s.caseIDs...)
		if s.firstCase < d.firstCase {
			d.firstCase = s.firstCase
		}
	}
}

// topVariant selects the dominant variant: largest case count, ties
// broken by the variant whose first constituent case appears earliest
// in case-processing order. The rule is explicit so the selection never
// depends on map iteration order.
func topVariant(variants map[string]*variantGroup) *variantGroup {
	var best *variantGroup
	for _, g := range variants {
		if best == nil {
			best = g
			continue
		}
		if len(g.caseIDs) > len(best.caseIDs) ||
			(len(g.caseIDs) == len(best.caseIDs) && g.firstCase < best.firstCase) {
			best = g
		}
	}
	return best
}
