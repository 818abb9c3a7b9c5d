package torrent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jkaberg/puntbox/box"
	"github.com/jkaberg/puntbox/config"
	"github.com/jkaberg/puntbox/torrent/watchers"
)

// Service is the run loop of one box. It owns the live config, expressed as
// the current Manager, and handles one action at a time.
type Service struct {
	layout  *box.Layout
	handler *config.Handler
	deps    Deps

	mu     sync.Mutex
	m      *Manager
	loaded atomic.Bool

	log zerolog.Logger
}

func NewService(d Deps) *Service {
	if d.Stats == nil {
		d.Stats = NewStats()
	}

	return &Service{
		layout:  d.Layout,
		handler: config.NewHandler(d.Layout.ConfigPath()),
		deps:    d,
		log:     log.Logger.With().Str("component", "torrent-service").Logger(),
	}
}

func (s *Service) Stats() *Stats {
	return s.deps.Stats
}

func (s *Service) ConfigLoaded() bool {
	return s.loaded.Load()
}

func (s *Service) setManager(m *Manager) {
	s.mu.Lock()
	s.m = m
	s.mu.Unlock()

	s.loaded.Store(m != nil)
	s.deps.Stats.SetConfigLoaded(m != nil)
}

func (s *Service) manager() *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

// LoadConfig rebuilds the Manager from the config document. On failure the
// previous Manager is discarded too and publishing stays disabled until the
// document is fixed.
func (s *Service) LoadConfig() {
	conf, err := s.handler.Get()
	if err != nil {
		s.log.Error().Err(err).Str("path", s.handler.Path()).Msg("error loading configuration, publishing disabled")
		s.setManager(nil)
		return
	}

	s.setManager(NewManager(conf, s.deps))
	s.log.Info().Str("tracker", conf.Tracker).Str("transmission", conf.Transmission.URL).Msg("configuration loaded")
}

func (s *Service) UnloadConfig() {
	s.setManager(nil)
	s.log.Warn().Msg("configuration removed, publishing disabled")
}

// Handle processes every action a raw event stands for, in order. The
// returned error is one the run loop must stop on.
func (s *Service) Handle(ctx context.Context, ev watchers.Event) error {
	for _, a := range Normalize(ev) {
		if err := s.handleAction(ctx, a); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) handleAction(ctx context.Context, a Action) (err error) {
	rel, target := Classify(s.layout.Root, a.Path)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &ActionError{Op: a.Op, Path: rel, Err: errors.WithStack(err)}
		}
	}()

	switch target {
	case TargetDrop:
		return nil
	case TargetConfig:
		if a.Op == OpDelete {
			s.UnloadConfig()
		} else {
			s.LoadConfig()
		}
		return nil
	}

	m := s.manager()
	if m == nil {
		s.log.Debug().Str("op", a.Op.String()).Str("path", rel).Msg("no configuration, dropping action")
		s.deps.Stats.Add(ActionDropped, rel)
		return nil
	}

	s.log.Debug().Str("op", a.Op.String()).Str("path", rel).Msg("handling action")
	return m.Handle(ctx, a.Op, rel)
}

// ActionError is an unhandled failure of one action.
type ActionError struct {
	Op   Op
	Path string
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Run handles events until ctx is cancelled, the event stream ends or an
// action fails in an unexpected way. Cancellation is only observed between
// actions; an action in progress always completes.
func (s *Service) Run(ctx context.Context, events <-chan watchers.Event, errs <-chan error) error {
	work := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("shutting down")
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.log.Warn().Err(err).Msg("watcher reported an error")
		case ev, ok := <-events:
			if !ok {
				s.log.Info().Msg("event stream closed")
				return nil
			}
			if err := s.Handle(work, ev); err != nil {
				l := s.log.Error().Stack().Err(err)
				var ae *ActionError
				if errors.As(err, &ae) {
					l = l.Str("action", ae.Op.String()).Str("path", ae.Path)
				}
				l.Msg("unhandled error while handling action, stopping")
				return err
			}
		}
	}
}
