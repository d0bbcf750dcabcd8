package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttendanceStatsProvider_PresenceStats(t *testing.T) {
	ctx := context.Background()
	repo := &mockAttendanceRepo{}
	repo.add(1, testNow.AddDate(0, 0, -10), 1, 2)
	repo.add(1, testNow.AddDate(0, 0, -40), 1)
	repo.add(1, testNow.AddDate(0, 0, -100), 1, 2) // outside the default window
	repo.add(2, testNow.AddDate(0, 0, -5), 1, 2)   // another section

	clock := &testClock{t: testNow}
	provider := NewAttendanceStatsProvider(repo, 0, clock.Now)
	require.Equal(t, 90, provider.WindowDays())

	t.Run("default window", func(t *testing.T) {
		stats, err := provider.PresenceStats(ctx, 1, []int64{1, 2, 2, 3}, 0)
		require.NoError(t, err)
		require.Equal(t, 2, stats.TotalMeetings)
		require.Equal(t, map[int64]int{1: 2, 2: 1, 3: 0}, stats.PresentByMember)
		require.Equal(t, testNow.AddDate(0, 0, -90), stats.From)
		require.Equal(t, testNow, stats.To)

		joint := stats.Joint(1, 2)
		require.Equal(t, 1, joint.PresentAll)
		require.InDelta(t, 50.0, *joint.Percent, 1e-9)
	})

	t.Run("explicit window", func(t *testing.T) {
		stats, err := provider.PresenceStats(ctx, 1, []int64{1, 2}, 365)
		require.NoError(t, err)
		require.Equal(t, 3, stats.TotalMeetings)
		require.Equal(t, 3, stats.PresentByMember[1])
		require.Equal(t, 2, stats.PresentByMember[2])
	})

	t.Run("no meetings", func(t *testing.T) {
		stats, err := provider.PresenceStats(ctx, 9, []int64{1}, 0)
		require.NoError(t, err)
		require.Zero(t, stats.TotalMeetings)
		require.Nil(t, stats.Joint(1).Percent)
	})
}
