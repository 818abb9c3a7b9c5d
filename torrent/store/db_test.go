package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testMagnet  = "magnet:?xt=urn:btih:ZOCMZQIPFFW7OLLMIC5HUB6BPCSDEOQU&dn=movie.mp4&tr=udp%3A%2F%2Ft%3A1%2Fannounce&xl=10"
	testMagnet2 = "magnet:?xt=urn:btih:2C2C2C2C2C2C2C2C2C2C2C2C2C2C2C2C&dn=a.txt&tr=udp%3A%2F%2Ft%3A1%2Fannounce&xl=3"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDBPutGetDelete(t *testing.T) {
	require := require.New(t)

	db := newTestDB(t)

	_, err := db.Get("movie.mp4")
	require.ErrorIs(err, ErrNotFound)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(db.Put(&Item{
		Path:        "movie.mp4",
		TorrentFile: "/box/.puntbox/torrents/movie.mp4.torrent",
		Magnet:      testMagnet,
		PublishedAt: at,
	}))

	i, err := db.Get("movie.mp4")
	require.NoError(err)
	require.Equal("cb84ccc10f296df72d6c40ba7a07c178a4323a14", i.InfoHash)
	require.Equal(testMagnet, i.Magnet)
	require.True(at.Equal(i.PublishedAt))

	require.NoError(db.Delete("movie.mp4"))
	_, err = db.Get("movie.mp4")
	require.ErrorIs(err, ErrNotFound)

	require.NoError(db.Delete("never-there"))
}

func TestDBList(t *testing.T) {
	require := require.New(t)

	db := newTestDB(t)

	items, err := db.List()
	require.NoError(err)
	require.Empty(items)

	require.NoError(db.Put(&Item{Path: "sub/b.txt", Magnet: testMagnet2}))
	require.NoError(db.Put(&Item{Path: "a.txt", Magnet: testMagnet}))
	require.NoError(db.Put(&Item{Path: "a.txt", Magnet: testMagnet2}))

	items, err = db.List()
	require.NoError(err)
	require.Len(items, 2)
	require.Equal("a.txt", items[0].Path)
	require.Equal(testMagnet2, items[0].Magnet)
	require.Equal("sub/b.txt", items[1].Path)
}

func TestDBPutInvalidMagnet(t *testing.T) {
	db := newTestDB(t)
	require.Error(t, db.Put(&Item{Path: "x", Magnet: "http://not-a-magnet"}))
}

func TestDBOnDisk(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	db, err := NewDB(dir)
	require.NoError(err)
	require.NoError(db.Put(&Item{Path: "movie.mp4", Magnet: testMagnet}))
	require.NoError(db.Close())

	db, err = NewDB(dir)
	require.NoError(err)
	defer db.Close()

	i, err := db.Get("movie.mp4")
	require.NoError(err)
	require.Equal(testMagnet, i.Magnet)
}
