// Package transmissiontest provides an in-process fake of the transmission
// RPC endpoint for tests.
package transmissiontest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/jkaberg/puntbox/transmission"
)

const DefaultSessionID = "test-session"

type Call struct {
	Method    string
	Arguments map[string]interface{}
}

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	sessionID  string
	handshakes int
	calls      []Call
	torrents   []transmission.Torrent
	nextID     int64
	failures   map[string]string
}

func New() *Server {
	s := &Server{
		sessionID: DefaultSessionID,
		nextID:    1,
		failures:  make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Fail makes every call of method answer with result instead of "success".
func (s *Server) Fail(method, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = result
}

// RotateSession invalidates the current session id.
func (s *Server) RotateSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
}

// AddTorrent registers a torrent as if it was added by someone else.
func (s *Server) AddTorrent(torrentFile string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(torrentFile)
}

func (s *Server) add(torrentFile string) int64 {
	id := s.nextID
	s.nextID++
	s.torrents = append(s.torrents, transmission.Torrent{ID: id, TorrentFile: torrentFile})
	return id
}

func (s *Server) Handshakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes
}

// Calls returns authenticated calls other than session-get, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) Methods() []string {
	var out []string
	for _, c := range s.Calls() {
		out = append(out, c.Method)
	}
	return out
}

func (s *Server) Torrents() []transmission.Torrent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transmission.Torrent, len(s.torrents))
	copy(out, s.torrents)
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req Call
	var body struct {
		Method    string                 `json:"method"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Method, req.Arguments = body.Method, body.Arguments

	if r.Header.Get(transmission.SessionHeader) != s.sessionID {
		if req.Method == "session-get" {
			s.handshakes++
		}
		w.Header().Set(transmission.SessionHeader, s.sessionID)
		w.WriteHeader(http.StatusConflict)
		return
	}

	if req.Method != "session-get" {
		s.calls = append(s.calls, req)
	}

	if result, ok := s.failures[req.Method]; ok {
		writeResult(w, result, nil)
		return
	}

	switch req.Method {
	case "session-get":
		writeResult(w, "success", map[string]interface{}{"version": "fake"})
	case "torrent-add":
		f, _ := req.Arguments["filename"].(string)
		id := s.add(f)
		writeResult(w, "success", map[string]interface{}{
			"torrent-added": map[string]interface{}{"id": id},
		})
	case "torrent-get":
		writeResult(w, "success", map[string]interface{}{"torrents": s.torrents})
	case "torrent-remove":
		ids, _ := req.Arguments["ids"].([]interface{})
		for _, v := range ids {
			id, _ := v.(float64)
			s.remove(int64(id))
		}
		writeResult(w, "success", nil)
	default:
		writeResult(w, "method name not recognized", nil)
	}
}

func (s *Server) remove(id int64) {
	for i, t := range s.torrents {
		if t.ID == id {
			s.torrents = append(s.torrents[:i], s.torrents[i+1:]...)
			return
		}
	}
}

func writeResult(w http.ResponseWriter, result string, args interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"result":    result,
		"arguments": args,
	})
}
