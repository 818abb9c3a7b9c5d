package torrent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	require := require.New(t)

	s := NewStats()
	start := s.gTime
	s.now = func() time.Time { return start.Add(90 * time.Second) }

	gs := s.GlobalStats()
	require.Zero(gs.Published)
	require.Nil(gs.Last)
	require.False(gs.ConfigLoaded)

	s.SetConfigLoaded(true)
	s.Add(ActionPublished, "a")
	s.Add(ActionPublished, "b")
	s.Add(ActionFailed, "c")
	s.Add(ActionDropped, "d")

	gs = s.GlobalStats()
	require.Equal(2, gs.Published)
	require.Equal(1, gs.Failed)
	require.Equal(1, gs.Dropped)
	require.Zero(gs.Unpublished)
	require.True(gs.ConfigLoaded)
	require.Equal(90.0, gs.Uptime)
	require.Equal(&LastAction{Kind: ActionDropped, Path: "d", At: start.Add(90 * time.Second)}, gs.Last)
}
