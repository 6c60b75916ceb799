package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errPtr(s string) *string { return &s }

func TestTransitionFirstCheckDown(t *testing.T) {
	res := Transition(nil, Outcome{Status: OutcomeDown, Error: errPtr("timeout")}, 60)
	assert.Equal(t, StatusDown, res.Next.Status)
	assert.True(t, res.Changed)
	assert.Equal(t, ActionOpen, res.OutageAction)
	assert.Equal(t, int64(60), res.Next.LastChangedAt)
	require.NotNil(t, res.Next.LastError)
	assert.Equal(t, "timeout", *res.Next.LastError)
}

func TestTransitionDownThenUp(t *testing.T) {
	// down at t=60, then up at t=120.
	down := Transition(nil, Outcome{Status: OutcomeDown, Error: errPtr("timeout")}, 60)
	require.Equal(t, ActionOpen, down.OutageAction)

	up := Transition(&down.Next, Outcome{Status: OutcomeUp}, 120)
	assert.Equal(t, StatusUp, up.Next.Status)
	assert.True(t, up.Changed)
	assert.Equal(t, ActionClose, up.OutageAction)
	assert.Nil(t, up.Next.LastError)
	assert.Equal(t, int64(120), up.Next.LastChangedAt)
}

func TestTransitionRepeatedDownIsUpdateNotOpen(t *testing.T) {
	prev := State{Status: StatusDown, ConsecutiveFailures: 1, LastChangedAt: 60}
	res := Transition(&prev, Outcome{Status: OutcomeDown, Error: errPtr("connection refused")}, 120)
	assert.False(t, res.Changed)
	assert.Equal(t, ActionUpdate, res.OutageAction)
	assert.Equal(t, StatusDown, res.Next.Status)
	assert.Equal(t, int64(60), res.Next.LastChangedAt, "unchanged status carries last_changed_at forward")
}

func TestTransitionUpToUpIsNoOp(t *testing.T) {
	prev := State{Status: StatusUp, ConsecutiveSuccesses: 3, LastChangedAt: 10}
	res := Transition(&prev, Outcome{Status: OutcomeUp}, 999)
	assert.False(t, res.Changed)
	assert.Equal(t, ActionNone, res.OutageAction)
	assert.Equal(t, int64(10), res.Next.LastChangedAt)
}

func TestTransitionUnknownOutcome(t *testing.T) {
	prev := State{Status: StatusUp, LastChangedAt: 10}
	res := Transition(&prev, Outcome{Status: OutcomeUnknown}, 50)
	assert.Equal(t, StatusUnknown, res.Next.Status)
	assert.True(t, res.Changed)
	assert.Equal(t, ActionNone, res.OutageAction)
}

func TestClassifyEvent(t *testing.T) {
	assert.Equal(t, EventMonitorDown, ClassifyEvent(StatusUp, StatusDown))
	assert.Equal(t, EventMonitorDown, ClassifyEvent(StatusUnknown, StatusDown))
	assert.Equal(t, EventMonitorUp, ClassifyEvent(StatusDown, StatusUp))
	assert.Equal(t, EventNone, ClassifyEvent(StatusUp, StatusUp))
	assert.Equal(t, EventNone, ClassifyEvent(StatusDown, StatusDown))
}
