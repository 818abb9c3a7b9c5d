package torrent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jkaberg/puntbox/torrent/watchers"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   watchers.Event
		want []Action
	}{
		{"moved", watchers.Event{Kind: watchers.Moved, Path: "/box/a", Dest: "/box/b"}, []Action{{OpDelete, "/box/a"}, {OpCreate, "/box/b"}}},
		{"moved dir", watchers.Event{Kind: watchers.Moved, IsDir: true, Path: "/box/d1", Dest: "/box/d2"}, []Action{{OpDelete, "/box/d1"}, {OpCreate, "/box/d2"}}},
		{"modified", watchers.Event{Kind: watchers.Modified, Path: "/box/a"}, []Action{{OpModify, "/box/a"}}},
		{"created", watchers.Event{Kind: watchers.Created, Path: "/box/a"}, []Action{{OpCreate, "/box/a"}}},
		{"deleted", watchers.Event{Kind: watchers.Deleted, Path: "/box/a"}, []Action{{OpDelete, "/box/a"}}},
		{"unknown", watchers.Event{Kind: watchers.Kind(42), Path: "/box/a"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		rel    string
		target Target
	}{
		{"root", "/box", "", TargetDrop},
		{"root trailing slash", "/box/", "", TargetDrop},
		{"file", "/box/movie.mp4", "movie.mp4", TargetItem},
		{"nested", "/box/sub/file.txt", "sub/file.txt", TargetItem},
		{"directory", "/box/album", "album", TargetItem},
		{"hidden file", "/box/.secret", "", TargetDrop},
		{"hidden dir", "/box/.puntbox/torrents/a.torrent", "", TargetDrop},
		{"hidden nested", "/box/sub/.swp/file", "", TargetDrop},
		{"registry temp", "/box/.magnets.yaml.tmp", "", TargetDrop},
		{"dots inside name", "/box/a.b.c", "a.b.c", TargetItem},
		{"registry", "/box/magnets.yaml", "", TargetDrop},
		{"nested registry name", "/box/sub/magnets.yaml", "sub/magnets.yaml", TargetItem},
		{"config", "/box/config.yaml", "config.yaml", TargetConfig},
		{"outside", "/elsewhere/file", "", TargetDrop},
		{"sibling prefix", "/boxes/file", "", TargetDrop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, target := Classify("/box", tt.path)
			require.Equal(t, tt.target, target)
			require.Equal(t, tt.rel, rel)
		})
	}
}

func TestClassifyNormalizedMove(t *testing.T) {
	require := require.New(t)

	var got []string
	for _, a := range Normalize(watchers.Event{Kind: watchers.Moved, Path: "/box/.part", Dest: "/box/done.iso"}) {
		if rel, target := Classify("/box", a.Path); target == TargetItem {
			got = append(got, a.Op.String()+":"+rel)
		}
	}
	require.Equal([]string{"create:done.iso"}, got)
}
