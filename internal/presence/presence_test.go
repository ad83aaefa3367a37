package presence

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct {
	userID string
	online bool
}

func trackerWithRecorder(clock clockwork.Clock) (*Tracker, *[]transition) {
	var transitions []transition
	t := NewTracker(clock, func(userID string, online bool) {
		transitions = append(transitions, transition{userID, online})
	})
	return t, &transitions
}

func TestTracker_OnlineOfflineEdges(t *testing.T) {
	tracker, transitions := trackerWithRecorder(clockwork.NewFakeClock())

	assert.False(t, tracker.IsOnline("alice"))

	tracker.Increment("alice")
	assert.True(t, tracker.IsOnline("alice"))
	require.Len(t, *transitions, 1)
	assert.Equal(t, transition{"alice", true}, (*transitions)[0])

	tracker.Decrement("alice")
	assert.False(t, tracker.IsOnline("alice"))
	require.Len(t, *transitions, 2)
	assert.Equal(t, transition{"alice", false}, (*transitions)[1])
}

func TestTracker_MultiConnectionDoesNotFlicker(t *testing.T) {
	tracker, transitions := trackerWithRecorder(clockwork.NewFakeClock())

	// Two tabs open
	tracker.Increment("alice")
	tracker.Increment("alice")
	assert.True(t, tracker.IsOnline("alice"))
	assert.Equal(t, 2, tracker.Refcount("alice"))

	// Closing one tab keeps the user online, with no offline transition
	tracker.Decrement("alice")
	assert.True(t, tracker.IsOnline("alice"))
	assert.Equal(t, 1, tracker.Refcount("alice"))
	assert.Len(t, *transitions, 1)

	// Closing the last tab goes offline exactly once
	tracker.Decrement("alice")
	assert.False(t, tracker.IsOnline("alice"))
	require.Len(t, *transitions, 2)
	assert.Equal(t, transition{"alice", false}, (*transitions)[1])
}

func TestTracker_DecrementUnknownUserIsNoop(t *testing.T) {
	tracker, transitions := trackerWithRecorder(clockwork.NewFakeClock())

	tracker.Decrement("ghost")
	assert.False(t, tracker.IsOnline("ghost"))
	assert.Empty(t, *transitions)

	// Duplicate disconnect after going offline is also a no-op
	tracker.Increment("alice")
	tracker.Decrement("alice")
	tracker.Decrement("alice")
	assert.Len(t, *transitions, 2)
	assert.Equal(t, 0, tracker.Refcount("alice"))
}

func TestTracker_EntryRemovedAtZero(t *testing.T) {
	tracker := NewTracker(clockwork.NewFakeClock(), nil)

	tracker.Increment("alice")
	_, seen := tracker.LastSeen("alice")
	assert.True(t, seen)

	tracker.Decrement("alice")
	_, seen = tracker.LastSeen("alice")
	assert.False(t, seen, "refcount zero must mean entry absent")
	assert.Equal(t, 0, tracker.OnlineCount())
}

func TestTracker_LastSeenAdvances(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := NewTracker(clock, nil)

	tracker.Increment("alice")
	first, ok := tracker.LastSeen("alice")
	require.True(t, ok)

	clock.Advance(42 * time.Second)
	tracker.Increment("alice")
	second, ok := tracker.LastSeen("alice")
	require.True(t, ok)
	assert.Equal(t, 42*time.Second, second.Sub(first))
}

func TestTracker_OnlineCount(t *testing.T) {
	tracker := NewTracker(clockwork.NewFakeClock(), nil)

	tracker.Increment("alice")
	tracker.Increment("alice")
	tracker.Increment("bob")
	assert.Equal(t, 2, tracker.OnlineCount())

	tracker.Decrement("bob")
	assert.Equal(t, 1, tracker.OnlineCount())
}

func TestTracker_SetOnTransition(t *testing.T) {
	tracker := NewTracker(clockwork.NewFakeClock(), nil)

	var got []transition
	tracker.SetOnTransition(func(userID string, online bool) {
		got = append(got, transition{userID, online})
	})

	tracker.Increment("alice")
	require.Len(t, got, 1)
	assert.Equal(t, transition{"alice", true}, got[0])
}
