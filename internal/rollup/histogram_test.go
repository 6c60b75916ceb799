package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestRankWorkedExample(t *testing.T) {
	// Scenario 6: latencies [10, 20, 30, 40] -> p50=20, p95=40.
	samples := []int64{10, 20, 30, 40}
	assert.Equal(t, int64(20), NearestRank(samples, 50))
	assert.Equal(t, int64(40), NearestRank(samples, 95))
}

func TestNearestRankSingleSample(t *testing.T) {
	assert.Equal(t, int64(42), NearestRank([]int64{42}, 50))
	assert.Equal(t, int64(42), NearestRank([]int64{42}, 99))
}

func TestBuildHistogramBucketBoundaries(t *testing.T) {
	// Each sample lands just below a boundary or at a boundary, exercising
	// both halves of "BUCKETS[i-1] <= v < BUCKETS[i]".
	samples := []int64{1, 24, 25, 49, 50, 10000, 20000}
	hist := BuildHistogram(samples)
	require.Len(t, hist, len(LatencyBucketsMs)+1)

	assert.Equal(t, 2, hist[0], "1 and 24 are both < 25: bucket 0")
	assert.Equal(t, 2, hist[1], "25 and 49 are both in [25,50): bucket 1")
	assert.Equal(t, 1, hist[2], "50 rolls up to bucket 2's [50,100) range")
	assert.Equal(t, 2, hist[len(hist)-1], "10000 and 20000 both land in the final bucket (v >= last boundary)")
}

func TestMergeHistogramsElementWiseSum(t *testing.T) {
	a := []int{1, 2, 3}
	b := []int{10, 20, 30}
	merged := MergeHistograms(a, b)
	assert.Equal(t, []int{11, 22, 33}, merged)
}

func TestPercentileFromHistogramDoesNotExceedRawNearestRank(t *testing.T) {
	samples := []int64{10, 20, 30, 40}
	hist := BuildHistogram(samples)
	// All samples land in bucket 0 (< 25) or bucket 1 (< 50), so the
	// histogram-derived percentile approximates via lower bucket bounds
	// rather than exact values; this test only asserts it doesn't exceed
	// the raw nearest-rank result in bucket terms.
	p50 := PercentileFromHistogram(hist, 50)
	p95 := PercentileFromHistogram(hist, 95)
	assert.LessOrEqual(t, p50, NearestRank(samples, 50))
	assert.LessOrEqual(t, p95, NearestRank(samples, 95))
}
