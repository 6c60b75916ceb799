package timeutil

import "testing"

func TestFloorToMinute(t *testing.T) {
	cases := map[int64]int64{
		0:   0,
		59:  0,
		60:  60,
		119: 60,
		125: 120,
	}
	for in, want := range cases {
		if got := FloorToMinute(in); got != want {
			t.Errorf("FloorToMinute(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDayStartEnd(t *testing.T) {
	// 2024-01-02T03:24:05Z
	ts := int64(1704165845)
	wantStart := int64(1704153600) // 2024-01-02T00:00:00Z
	if got := DayStart(ts); got != wantStart {
		t.Errorf("DayStart(%d) = %d, want %d", ts, got, wantStart)
	}
	if got := DayEnd(ts); got != wantStart+86400 {
		t.Errorf("DayEnd(%d) = %d, want %d", ts, got, wantStart+86400)
	}
}

func TestPreviousDay(t *testing.T) {
	now := int64(1704165845) // 03:24:05 on 2024-01-02
	start, end := PreviousDay(now)
	if end-start != 86400 {
		t.Errorf("expected a full day width, got %d", end-start)
	}
	if end != DayStart(now) {
		t.Errorf("PreviousDay end should equal today's start")
	}
}

func TestRangeSeconds(t *testing.T) {
	if s, ok := RangeSeconds("24h"); !ok || s != 86400 {
		t.Errorf("24h: got %d, %v", s, ok)
	}
	if _, ok := RangeSeconds("bogus"); ok {
		t.Error("expected bogus range to be rejected")
	}
}
