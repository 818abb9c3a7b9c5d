package torrent

import (
	"bytes"
	"strings"
	"testing"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/stretchr/testify/require"
)

const testTracker = "udp://tracker.example:1337/announce"

func singleFileInfo(name string, length int64) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"length":       length,
		"piece length": 16384,
		"pieces":       strings.Repeat("x", 20),
	}
}

func torrentBytes(t *testing.T, announce string, info map[string]interface{}) []byte {
	t.Helper()
	b, err := bencode.Marshal(map[string]interface{}{
		"announce": announce,
		"comment":  "published",
		"info":     info,
	})
	require.NoError(t, err)
	return b
}

func TestMagnet(t *testing.T) {
	require := require.New(t)

	data := torrentBytes(t, testTracker, singleFileInfo("movie.mp4", 1234))

	m, err := Magnet(data)
	require.NoError(err)

	mi, err := metainfo.Load(bytes.NewReader(data))
	require.NoError(err)
	ih := mi.HashInfoBytes()

	pi, err := ParseTorrent(data)
	require.NoError(err)
	require.Equal(ih, pi.InfoHash)
	require.Len(pi.Base32Hash(), 32)

	require.Equal("magnet:?xt=urn:btih:"+pi.Base32Hash()+
		"&dn=movie.mp4&tr=udp%3A%2F%2Ftracker.example%3A1337%2Fannounce&xl=1234", m)

	spec, err := metainfo.ParseMagnetUri(m)
	require.NoError(err)
	require.Equal(ih, spec.InfoHash)
	require.Equal("movie.mp4", spec.DisplayName)
	require.Equal([]string{testTracker}, spec.Trackers)
}

func TestMagnetDeterministic(t *testing.T) {
	require := require.New(t)

	data := torrentBytes(t, testTracker, singleFileInfo("a b&c.txt", 7))

	m1, err := Magnet(data)
	require.NoError(err)
	m2, err := Magnet(append([]byte(nil), data...))
	require.NoError(err)
	require.Equal(m1, m2)
	require.Contains(m1, "dn=a+b%26c.txt")
}

func TestMagnetInfoChangeChangesHash(t *testing.T) {
	require := require.New(t)

	a, err := ParseTorrent(torrentBytes(t, testTracker, singleFileInfo("f", 7)))
	require.NoError(err)
	b, err := ParseTorrent(torrentBytes(t, testTracker, singleFileInfo("f", 8)))
	require.NoError(err)
	require.NotEqual(a.InfoHash, b.InfoHash)

	// the announce url is outside of info and does not affect the hash
	c, err := ParseTorrent(torrentBytes(t, "udp://other:1/announce", singleFileInfo("f", 7)))
	require.NoError(err)
	require.Equal(a.InfoHash, c.InfoHash)
}

func TestMagnetMultiFile(t *testing.T) {
	require := require.New(t)

	info := map[string]interface{}{
		"name":         "dir",
		"piece length": 16384,
		"pieces":       strings.Repeat("x", 20),
		"files": []interface{}{
			map[string]interface{}{"length": 3, "path": []interface{}{"a"}},
			map[string]interface{}{"length": 4, "path": []interface{}{"b", "c"}},
		},
	}

	pi, err := ParseTorrent(torrentBytes(t, testTracker, info))
	require.NoError(err)
	require.Equal(int64(7), pi.Length)
	require.True(strings.HasSuffix(pi.String(), "&xl=7"))
}

func TestMagnetErrors(t *testing.T) {
	noName := singleFileInfo("x", 1)
	delete(noName, "name")
	noLength := singleFileInfo("x", 1)
	delete(noLength, "length")

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("not bencode")},
		{"truncated", torrentBytes(t, testTracker, singleFileInfo("x", 1))[:20]},
		{"no info", mustMarshal(t, map[string]interface{}{"announce": testTracker})},
		{"no announce", mustMarshal(t, map[string]interface{}{"info": singleFileInfo("x", 1)})},
		{"no name", torrentBytes(t, testTracker, noName)},
		{"no length", torrentBytes(t, testTracker, noLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Magnet(tt.data)
			require.ErrorIs(t, err, ErrInvalidTorrent)
		})
	}
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := bencode.Marshal(v)
	require.NoError(t, err)
	return b
}
