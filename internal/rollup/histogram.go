package rollup

import "sort"

// LatencyBucketsMs are the fixed histogram boundaries, shared across all
// rollups so multi-day merges stay comparable. Expressed in milliseconds
// since check latencies are stored that way.
var LatencyBucketsMs = []int64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// BuildHistogram buckets samples per LatencyBucketsMs, returning a slice of
// length len(LatencyBucketsMs)+1: bucket i covers
// LatencyBucketsMs[i-1] <= v < LatencyBucketsMs[i], bucket 0 covers
// v < LatencyBucketsMs[0], and the last bucket covers v >= the final
// boundary.
func BuildHistogram(samples []int64) []int {
	hist := make([]int, len(LatencyBucketsMs)+1)
	for _, v := range samples {
		hist[bucketIndex(v)]++
	}
	return hist
}

func bucketIndex(v int64) int {
	for i, b := range LatencyBucketsMs {
		if v < b {
			return i
		}
	}
	return len(LatencyBucketsMs)
}

// MergeHistograms sums bucket counts element-wise, used to derive
// multi-day percentiles from daily rollups without re-reading raw checks.
func MergeHistograms(hists ...[]int) []int {
	if len(hists) == 0 {
		return nil
	}
	out := make([]int, len(hists[0]))
	for _, h := range hists {
		for i, c := range h {
			if i < len(out) {
				out[i] += c
			}
		}
	}
	return out
}

// NearestRank returns the p-th percentile (0 < p <= 100) of sorted using
// the nearest-rank rule. sorted must already be ascending.
func NearestRank(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(ceilDiv(p*float64(len(sorted)), 100))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func ceilDiv(num, den float64) float64 {
	q := num / den
	if q == float64(int64(q)) {
		return q
	}
	return float64(int64(q)) + 1
}

// PercentileFromHistogram applies the nearest-rank rule over bucket counts
// instead of raw samples, approximating each bucket's members at its lower
// boundary (or 0 for the first bucket), since the underlying values aren't
// retained after rollup.
func PercentileFromHistogram(hist []int, p float64) int64 {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 0
	}
	rank := int(ceilDiv(p*float64(total), 100))
	if rank < 1 {
		rank = 1
	}
	seen := 0
	for i, c := range hist {
		seen += c
		if seen >= rank {
			return lowerBound(i)
		}
	}
	return lowerBound(len(hist) - 1)
}

func lowerBound(bucketIdx int) int64 {
	if bucketIdx <= 0 {
		return 0
	}
	if bucketIdx-1 < len(LatencyBucketsMs) {
		return LatencyBucketsMs[bucketIdx-1]
	}
	return LatencyBucketsMs[len(LatencyBucketsMs)-1]
}

// sortInt64s is a small helper kept local since sort.Slice at call sites
// would otherwise repeat the same less-func.
func sortInt64s(vs []int64) {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
}
