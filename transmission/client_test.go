package transmission_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jkaberg/puntbox/transmission"
	"github.com/jkaberg/puntbox/transmission/transmissiontest"
)

func TestSessionLifecycle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv := transmissiontest.New()
	defer srv.Close()

	s, err := transmission.Open(ctx, srv.URL, 10*time.Second)
	require.NoError(err)
	require.Equal(transmissiontest.DefaultSessionID, s.ID())
	require.Equal(1, srv.Handshakes())

	require.NoError(s.TorrentAdd(ctx, "/box/.puntbox/torrents/a.torrent", "/box/.puntbox/torrents"))
	require.NoError(s.TorrentAdd(ctx, "/box/.puntbox/torrents/b.torrent", "/box/.puntbox/torrents"))

	ts, err := s.TorrentGet(ctx, transmission.FieldTorrentFile, transmission.FieldID)
	require.NoError(err)
	require.Len(ts, 2)
	require.Equal("/box/.puntbox/torrents/a.torrent", ts[0].TorrentFile)

	require.NoError(s.TorrentRemove(ctx, []int64{ts[0].ID}, false))
	ts, err = s.TorrentGet(ctx, transmission.FieldTorrentFile, transmission.FieldID)
	require.NoError(err)
	require.Len(ts, 1)

	calls := srv.Calls()
	require.Equal([]string{"torrent-add", "torrent-add", "torrent-get", "torrent-remove", "torrent-get"}, srv.Methods())
	require.Equal("/box/.puntbox/torrents", calls[0].Arguments["download-dir"])
	require.Equal(false, calls[3].Arguments["delete-local-data"])
	require.Equal([]interface{}{transmission.FieldTorrentFile, transmission.FieldID}, calls[2].Arguments["fields"])
}

func TestSessionExpiredIsNotRefreshed(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	srv := transmissiontest.New()
	defer srv.Close()

	s, err := transmission.Open(ctx, srv.URL, 10*time.Second)
	require.NoError(err)

	srv.RotateSession("other")
	err = s.TorrentAdd(ctx, "a.torrent", "/tmp")
	require.ErrorIs(err, transmission.ErrSessionExpired)
	require.Equal(1, srv.Handshakes())
}

func TestFailureResult(t *testing.T) {
	ctx := context.Background()

	srv := transmissiontest.New()
	defer srv.Close()
	srv.Fail("torrent-add", "invalid or corrupt torrent file")

	s, err := transmission.Open(ctx, srv.URL, 10*time.Second)
	require.NoError(t, err)

	err = s.TorrentAdd(ctx, "a.torrent", "/tmp")
	require.ErrorContains(t, err, "invalid or corrupt torrent file")
}

func TestHandshakeWithoutSessionHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := transmission.Open(context.Background(), srv.URL, time.Second)
	require.ErrorIs(t, err, transmission.ErrNoSession)
}

func TestHandshakeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := transmission.Open(context.Background(), srv.URL, 20*time.Millisecond)
	require.Error(t, err)
}

func TestMalformedResponse(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(transmission.SessionHeader, "id")
		if r.Header.Get(transmission.SessionHeader) == "" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	s, err := transmission.Open(ctx, srv.URL, time.Second)
	require.NoError(t, err)

	_, err = s.TorrentGet(ctx, transmission.FieldID)
	require.ErrorContains(t, err, "malformed response")
}
