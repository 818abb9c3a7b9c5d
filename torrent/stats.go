package torrent

import (
	"sync"
	"time"
)

type ActionKind string

const (
	ActionPublished   ActionKind = "published"
	ActionUnpublished ActionKind = "unpublished"
	ActionFailed      ActionKind = "failed"
	ActionDropped     ActionKind = "dropped"
)

type LastAction struct {
	Kind ActionKind `json:"kind"`
	Path string     `json:"path"`
	At   time.Time  `json:"at"`
}

type GlobalStats struct {
	Published    int         `json:"published"`
	Unpublished  int         `json:"unpublished"`
	Failed       int         `json:"failed"`
	Dropped      int         `json:"dropped"`
	ConfigLoaded bool        `json:"configLoaded"`
	Uptime       float64     `json:"uptime"`
	Last         *LastAction `json:"last,omitempty"`
}

// Stats counts what the run loop did since start.
type Stats struct {
	mut    sync.Mutex
	counts map[ActionKind]int
	last   *LastAction
	loaded bool

	gTime time.Time
	now   func() time.Time
}

func NewStats() *Stats {
	return &Stats{
		counts: make(map[ActionKind]int),
		gTime:  time.Now(),
		now:    time.Now,
	}
}

func (s *Stats) Add(kind ActionKind, path string) {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.counts[kind]++
	s.last = &LastAction{Kind: kind, Path: path, At: s.now()}
}

func (s *Stats) SetConfigLoaded(loaded bool) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.loaded = loaded
}

func (s *Stats) GlobalStats() *GlobalStats {
	s.mut.Lock()
	defer s.mut.Unlock()

	gs := &GlobalStats{
		Published:    s.counts[ActionPublished],
		Unpublished:  s.counts[ActionUnpublished],
		Failed:       s.counts[ActionFailed],
		Dropped:      s.counts[ActionDropped],
		ConfigLoaded: s.loaded,
		Uptime:       s.now().Sub(s.gTime).Seconds(),
	}
	if s.last != nil {
		l := *s.last
		gs.Last = &l
	}

	return gs
}
