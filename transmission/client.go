// Package transmission talks to the control RPC of a running transmission
// daemon. Only the handful of methods needed to seed published torrents are
// implemented.
package transmission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const SessionHeader = "X-Transmission-Session-Id"

const (
	FieldID          = "id"
	FieldTorrentFile = "torrentFile"
)

var (
	ErrNoSession      = errors.New("transmission did not hand out a session id")
	ErrSessionExpired = errors.New("transmission session id rejected")
)

type request struct {
	Method    string      `json:"method"`
	Arguments interface{} `json:"arguments"`
}

type response struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

// Torrent is the subset of torrent-get fields the program asks for.
type Torrent struct {
	ID          int64  `json:"id"`
	TorrentFile string `json:"torrentFile"`
}

// Session is an authenticated RPC channel. The session id obtained during
// the handshake is never refreshed.
type Session struct {
	url   string
	id    string
	httpc *http.Client
}

// Open performs the session-get handshake against url.
func Open(ctx context.Context, url string, timeout time.Duration) (*Session, error) {
	s := &Session{
		url:   url,
		httpc: &http.Client{Timeout: timeout},
	}

	resp, err := s.post(ctx, request{Method: "session-get", Arguments: struct{}{}})
	if err != nil {
		return nil, fmt.Errorf("transmission handshake: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// transmission answers the first request with 409 and the id to use
	s.id = resp.Header.Get(SessionHeader)
	if s.id == "" {
		return nil, fmt.Errorf("transmission handshake: %w (status %d)", ErrNoSession, resp.StatusCode)
	}

	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) post(ctx context.Context, body request) (*http.Response, error) {
	b, err := json.MarshalIndent(body, "", "    ")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.id != "" {
		req.Header.Set(SessionHeader, s.id)
	}

	return s.httpc.Do(req)
}

func (s *Session) doJSON(ctx context.Context, method string, args interface{}, out interface{}) error {
	resp, err := s.post(ctx, request{Method: method, Arguments: args})
	if err != nil {
		return fmt.Errorf("transmission %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("transmission %s: %w", method, ErrSessionExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transmission %s: http %d", method, resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("transmission %s: malformed response: %w", method, err)
	}
	if r.Result != "success" {
		return fmt.Errorf("transmission %s: %s", method, r.Result)
	}

	if out != nil && len(r.Arguments) != 0 {
		if err := json.Unmarshal(r.Arguments, out); err != nil {
			return fmt.Errorf("transmission %s: malformed arguments: %w", method, err)
		}
	}

	return nil
}

// TorrentAdd registers a torrent file and seeds it from downloadDir.
func (s *Session) TorrentAdd(ctx context.Context, filename, downloadDir string) error {
	args := map[string]interface{}{
		"filename":     filename,
		"download-dir": downloadDir,
	}
	return s.doJSON(ctx, "torrent-add", args, nil)
}

// TorrentGet lists every registered torrent with the requested fields.
func (s *Session) TorrentGet(ctx context.Context, fields ...string) ([]Torrent, error) {
	var out struct {
		Torrents []Torrent `json:"torrents"`
	}
	args := map[string]interface{}{
		"fields": fields,
	}
	if err := s.doJSON(ctx, "torrent-get", args, &out); err != nil {
		return nil, err
	}

	return out.Torrents, nil
}

// TorrentRemove unregisters torrents by id.
func (s *Session) TorrentRemove(ctx context.Context, ids []int64, deleteLocalData bool) error {
	args := map[string]interface{}{
		"ids":               ids,
		"delete-local-data": deleteLocalData,
	}
	return s.doJSON(ctx, "torrent-remove", args, nil)
}
