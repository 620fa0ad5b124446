package search

import (
	"strconv"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
)

// DefaultGuardThreshold is the largest estimated result count a filter-only
// query may scan without asking first.
const DefaultGuardThreshold = 10000

// Guard decides whether a filter-only query is too broad to run unasked.
type Guard struct {
	Enabled   bool
	Threshold int
}

// NewGuard creates a guard. A non-positive threshold falls back to the default.
func NewGuard(enabled bool, threshold int) Guard {
	if threshold <= 0 {
		threshold = DefaultGuardThreshold
	}
	return Guard{Enabled: enabled, Threshold: threshold}
}

// Estimate returns an upper bound for the result count of st: the smallest,
// across active dimensions, of the summed global counts of the selected values.
// years are the resolved years of the date filter. Dimensions without global
// counts (parent) do not contribute; with none contributing the estimate is 0.
func Estimate(st *state.State, global facet.Snapshot, years []string) int {
	estimate := -1
	take := func(n int) {
		if estimate < 0 || n < estimate {
			estimate = n
		}
	}

	for _, dim := range facet.Exclusive {
		if values := st.Values(dim); len(values) > 0 {
			take(global.Get(dim).Sum(values...))
		}
	}
	if st.Date != nil {
		take(global.Get(facet.Year).Sum(years...))
	}
	if st.HasDateRange() {
		take(rangeCount(global.Get(facet.Year), st.DateFrom, st.DateTo))
	}

	if estimate < 0 {
		return 0
	}
	return estimate
}

// Check returns the estimate and whether st must be confirmed before running.
// Queries carrying free text always run.
func (g Guard) Check(st *state.State, global facet.Snapshot, years []string) (int, bool) {
	if !g.Enabled || st.CombinedQuery() != "" || !st.HasStructuredFilter() {
		return 0, false
	}
	est := Estimate(st, global, years)
	return est, est > g.Threshold
}

func rangeCount(years facet.Counts, from, to *int) int {
	total := 0
	for key, n := range years {
		y, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if from != nil && y < *from {
			continue
		}
		if to != nil && y > *to {
			continue
		}
		total += n
	}
	return total
}
