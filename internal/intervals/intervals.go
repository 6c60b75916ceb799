// Package intervals implements the half-open [start, end) integer interval
// algebra that backs outage accounting, unknown-coverage detection, and the
// daily rollup. It is deliberately allocation-conscious and dependency-free:
// every other time-series component (scheduler, rollup, public status
// builder, analytics) composes these primitives instead of re-deriving them.
package intervals

import "sort"

// Interval is a half-open range [Start, End) of unix seconds.
type Interval struct {
	Start int64
	End   int64
}

// width returns the non-negative width of i.
func (i Interval) width() int64 {
	if i.End <= i.Start {
		return 0
	}
	return i.End - i.Start
}

// Merge sorts intervals by Start and coalesces any that touch or overlap
// (next.Start <= prev.End) into a single interval. The result is strictly
// non-overlapping, sorted, and has no zero-or-negative-width members.
func Merge(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.width() > 0 {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Start < sorted[b].Start })

	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= cur.End {
			if next.End > cur.End {
				cur.End = next.End
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// Sum returns the total width of every interval in the set, ignoring
// negative-width members. Callers typically pass an already-merged set so
// overlapping members aren't double-counted.
func Sum(in []Interval) int64 {
	var total int64
	for _, iv := range in {
		total += iv.width()
	}
	return total
}

// Overlap computes the total overlap between two merged, sorted interval
// sets via a two-pointer sweep. Both inputs are assumed already merged and
// sorted by Merge; behavior on unmerged input is undefined.
func Overlap(a, b []Interval) int64 {
	var total int64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := max64(a[i].Start, b[j].Start)
		end := min64(a[i].End, b[j].End)
		if end > start {
			total += end - start
		}
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return total
}

// Clip restricts i to the bounds of rng, returning ok=false if the result
// has non-positive width.
func Clip(i, rng Interval) (Interval, bool) {
	out := Interval{Start: max64(i.Start, rng.Start), End: min64(i.End, rng.End)}
	if out.width() <= 0 {
		return Interval{}, false
	}
	return out, true
}

// ClipAll clips every interval in the set to rng, dropping any that vanish.
func ClipAll(in []Interval, rng Interval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if clipped, ok := Clip(iv, rng); ok {
			out = append(out, clipped)
		}
	}
	return out
}

// Check is the minimal shape build_unknown needs from a CheckResult: the
// time it ran and whether its status was literally "unknown".
type Check struct {
	CheckedAt int64
	Unknown   bool
}

// BuildUnknown computes the unknown sub-intervals of [rangeStart, rangeEnd)
// given a chronologically ordered sequence of checks and the monitor's
// interval. A check at time t is treated as covering [t, t+2*intervalSec);
// any uncovered portion of the range, or any portion covered by a check
// whose status was literally unknown, is unknown. checks must be sorted by
// CheckedAt ascending and may include checks before rangeStart (their
// coverage can extend into the range) and after rangeEnd (ignored).
func BuildUnknown(rangeStart, rangeEnd, intervalSec int64, checks []Check) []Interval {
	if rangeEnd <= rangeStart || intervalSec <= 0 {
		return nil
	}
	coverage := 2 * intervalSec

	// known covers the portions of [rangeStart, rangeEnd) that are covered
	// by a check with a known (non-"unknown") status. Everything else in
	// the range — gaps, and portions covered only by an "unknown" check —
	// is unknown.
	var known []Interval
	for _, c := range checks {
		if c.Unknown {
			continue
		}
		cov := Interval{Start: c.CheckedAt, End: c.CheckedAt + coverage}
		if clipped, ok := Clip(cov, Interval{Start: rangeStart, End: rangeEnd}); ok {
			known = append(known, clipped)
		}
	}
	known = Merge(known)

	full := Interval{Start: rangeStart, End: rangeEnd}
	return subtract(full, known)
}

// subtract returns the portion of whole not covered by any interval in
// covered. covered is assumed merged and sorted.
func subtract(whole Interval, covered []Interval) []Interval {
	var out []Interval
	cursor := whole.Start
	for _, c := range covered {
		if c.Start > cursor {
			out = append(out, Interval{Start: cursor, End: min64(c.Start, whole.End)})
		}
		if c.End > cursor {
			cursor = c.End
		}
		if cursor >= whole.End {
			return out
		}
	}
	if cursor < whole.End {
		out = append(out, Interval{Start: cursor, End: whole.End})
	}
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
