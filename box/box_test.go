package box

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	require := require.New(t)

	l, err := New(filepath.Join(t.TempDir(), "box"))
	require.NoError(err)

	created, err := l.Init()
	require.NoError(err)
	require.True(created)

	for _, p := range []string{l.ConfigPath(), l.TorrentsDir(), filepath.Join(l.InternalDir(), markerFileName)} {
		_, err := os.Stat(p)
		require.NoError(err, p)
	}

	created, err = l.Init()
	require.NoError(err)
	require.False(created)
}

func TestPaths(t *testing.T) {
	l := &Layout{Root: "/box"}

	require.Equal(t, "/box/.puntbox/torrents/movie.mp4.torrent", l.TorrentPath("movie.mp4"))
	require.Equal(t, "/box/sub/file.txt", l.SourcePath("sub/file.txt"))
	require.Equal(t, "/box/magnets.yaml", l.RegistryPath())
	require.Equal(t, "/box/config.yaml", l.ConfigPath())
}
