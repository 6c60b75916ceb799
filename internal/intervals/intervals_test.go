package intervals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeInvariant(t *testing.T) {
	in := []Interval{
		{Start: 10, End: 20},
		{Start: 15, End: 25},
		{Start: 30, End: 40},
		{Start: 40, End: 50}, // touches the previous interval, should coalesce
	}
	merged := Merge(in)
	require.Len(t, merged, 2)
	assert.Equal(t, Interval{Start: 10, End: 25}, merged[0])
	assert.Equal(t, Interval{Start: 30, End: 50}, merged[1])

	for i := 0; i < len(merged); i++ {
		assert.Less(t, merged[i].Start, merged[i].End, "every merged interval has positive width")
		if i > 0 {
			assert.Less(t, merged[i-1].End, merged[i].Start, "merged intervals are strictly separated")
		}
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	in := []Interval{{Start: 0, End: 10}, {Start: 5, End: 15}, {Start: 100, End: 200}}
	once := Merge(in)
	twice := Merge(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, Sum(once), Sum(twice))
}

func TestOverlapBoundedAndSymmetric(t *testing.T) {
	a := Merge([]Interval{{Start: 0, End: 100}})
	b := Merge([]Interval{{Start: 50, End: 150}})

	ab := Overlap(a, b)
	ba := Overlap(b, a)
	assert.Equal(t, ab, ba)
	assert.Equal(t, int64(50), ab)

	minSum := Sum(a)
	if Sum(b) < minSum {
		minSum = Sum(b)
	}
	assert.LessOrEqual(t, ab, minSum)
}

func TestClip(t *testing.T) {
	rng := Interval{Start: 100, End: 200}

	clipped, ok := Clip(Interval{Start: 50, End: 150}, rng)
	require.True(t, ok)
	assert.Equal(t, Interval{Start: 100, End: 150}, clipped)

	_, ok = Clip(Interval{Start: 0, End: 50}, rng)
	assert.False(t, ok, "fully outside range clips to nothing")
}

func TestClipAllDropsIntervalsOutsideRange(t *testing.T) {
	rng := Interval{Start: 100, End: 200}
	in := []Interval{
		{Start: 50, End: 150},  // partially inside, clips to [100,150)
		{Start: 0, End: 50},    // fully outside, dropped
		{Start: 180, End: 250}, // partially inside, clips to [180,200)
	}
	clipped := ClipAll(in, rng)
	require.Len(t, clipped, 2)
	assert.Equal(t, Interval{Start: 100, End: 150}, clipped[0])
	assert.Equal(t, Interval{Start: 180, End: 200}, clipped[1])
}

func TestBuildUnknownGapBetweenChecks(t *testing.T) {
	// Scenario 3 from: checks at t=0 (up) and t=240 (up), interval=60.
	// Coverage window is 2*interval = 120s, so the check at t=0 covers [0,120)
	// and the check at t=240 covers [240,360). The gap [120,240) is unknown.
	checks := []Check{
		{CheckedAt: 0, Unknown: false},
		{CheckedAt: 240, Unknown: false},
	}
	unknown := BuildUnknown(0, 86400, 60, checks)
	require.NotEmpty(t, unknown)
	assert.Equal(t, int64(120), unknown[0].Start)
	assert.Equal(t, int64(240), unknown[0].End)
	assert.GreaterOrEqual(t, Sum(unknown), int64(120))
}

func TestBuildUnknownLiteralUnknownStatusIsUncovered(t *testing.T) {
	checks := []Check{
		{CheckedAt: 0, Unknown: true},
	}
	unknown := BuildUnknown(0, 120, 60, checks)
	require.Len(t, unknown, 1)
	assert.Equal(t, Interval{Start: 0, End: 120}, unknown[0])
}

func TestBuildUnknownNoChecksIsFullyUnknown(t *testing.T) {
	unknown := BuildUnknown(0, 86400, 60, nil)
	require.Len(t, unknown, 1)
	assert.Equal(t, int64(86400), Sum(unknown))
}

func TestBuildUnknownCheckBeforeRangeExtendsIn(t *testing.T) {
	// A check before rangeStart whose coverage window extends into the range
	// should suppress unknown for that portion.
	checks := []Check{
		{CheckedAt: -30, Unknown: false}, // covers [-30, 90)
	}
	unknown := BuildUnknown(0, 120, 60, checks)
	require.Len(t, unknown, 1)
	assert.Equal(t, Interval{Start: 90, End: 120}, unknown[0])
}
