package torrent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/jkaberg/puntbox/box"
	"github.com/jkaberg/puntbox/config"
	"github.com/jkaberg/puntbox/torrent/store"
	"github.com/jkaberg/puntbox/transmission"
)

// RPC is the subset of the seeding daemon control channel the manager uses.
type RPC interface {
	TorrentAdd(ctx context.Context, filename, downloadDir string) error
	TorrentGet(ctx context.Context, fields ...string) ([]transmission.Torrent, error)
	TorrentRemove(ctx context.Context, ids []int64, deleteLocalData bool) error
}

// Dialer opens an RPC session.
type Dialer func(ctx context.Context, url string, timeout time.Duration) (RPC, error)

func DialTransmission(ctx context.Context, url string, timeout time.Duration) (RPC, error) {
	s, err := transmission.Open(ctx, url, timeout)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Deps are the collaborators a Manager is built with. Zero values are
// replaced by production defaults.
type Deps struct {
	Layout  *box.Layout
	Fs      afero.Fs
	Items   ItemStore
	Stats   *Stats
	Builder Builder
	Dial    Dialer
	Now     func() time.Time
}

// Manager publishes and unpublishes box paths for one loaded config. A new
// Manager is built on every config reload, so its RPC session lives exactly
// as long as that config.
type Manager struct {
	conf   *config.Root
	layout *box.Layout

	fs       afero.Fs
	registry *Registry
	items    ItemStore
	stats    *Stats
	builder  Builder
	dial     Dialer
	now      func() time.Time

	rpc RPC

	log zerolog.Logger
}

func NewManager(conf *config.Root, d Deps) *Manager {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Items == nil {
		d.Items = nopItems{}
	}
	if d.Stats == nil {
		d.Stats = NewStats()
	}
	if d.Builder == nil {
		d.Builder = NewBuilder(conf.Builder)
	}
	if d.Dial == nil {
		d.Dial = DialTransmission
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	return &Manager{
		conf:     conf,
		layout:   d.Layout,
		fs:       d.Fs,
		registry: NewRegistry(d.Fs, d.Layout.RegistryPath()),
		items:    d.Items,
		stats:    d.Stats,
		builder:  d.Builder,
		dial:     d.Dial,
		now:      d.Now,
		log:      log.Logger.With().Str("component", "manager").Logger(),
	}
}

func (m *Manager) session(ctx context.Context) (RPC, error) {
	if m.rpc != nil {
		return m.rpc, nil
	}

	rpc, err := m.dial(ctx, m.conf.Transmission.URL, m.conf.Transmission.RequestTimeout())
	if err != nil {
		return nil, err
	}
	m.rpc = rpc

	return rpc, nil
}

func (m *Manager) rpcFailed(path, op string, err error) error {
	m.log.Error().Err(err).Str("path", path).Str("op", op).Msg("transmission request failed, action aborted")
	if errors.Is(err, transmission.ErrSessionExpired) {
		m.log.Warn().Str("config", m.layout.ConfigPath()).
			Msg("transmission session is no longer valid, save the config file again to open a new one")
	}
	m.stats.Add(ActionFailed, path)
	return nil
}

// Create builds, registers and records the torrent of a relative path.
// Build and RPC failures are logged and abort the action without an error.
func (m *Manager) Create(ctx context.Context, path string) error {
	now := m.now()
	comment := m.conf.Comment.Render(path, now)
	m.log.Debug().Str("path", path).Str("comment", comment).Msg("comment rendered")

	out := m.layout.TorrentPath(path)
	err := m.builder.Build(ctx, &BuildRequest{
		Output:  out,
		Comment: comment,
		Tracker: m.conf.Tracker,
		Source:  m.layout.SourcePath(path),
	})
	if errors.Is(err, ErrBuildFailed) {
		m.log.Error().Err(err).Str("path", path).Msg("torrent build failed, not publishing")
		m.stats.Add(ActionFailed, path)
		return nil
	}
	if err != nil {
		return err
	}

	rpc, err := m.session(ctx)
	if err != nil {
		return m.rpcFailed(path, "session-get", err)
	}
	if err := rpc.TorrentAdd(ctx, out, m.layout.TorrentsDir()); err != nil {
		return m.rpcFailed(path, "torrent-add", err)
	}

	data, err := afero.ReadFile(m.fs, out)
	if err != nil {
		return fmt.Errorf("error reading built torrent: %w", err)
	}
	magnet, err := Magnet(data)
	if err != nil {
		return fmt.Errorf("error computing magnet of %s: %w", out, err)
	}

	m.registry.Load()
	m.registry.Merge(path, magnet)
	if err := m.registry.Save(); err != nil {
		return err
	}

	if err := m.items.Put(&store.Item{
		Path:        path,
		TorrentFile: out,
		Magnet:      magnet,
		PublishedAt: now,
	}); err != nil {
		return fmt.Errorf("error recording published item: %w", err)
	}

	m.stats.Add(ActionPublished, path)
	m.log.Info().Str("path", path).Str("magnet", magnet).Msg("published")

	return nil
}

// Delete unregisters the torrent of a relative path and removes its torrent
// file. The registry document is left untouched.
func (m *Manager) Delete(ctx context.Context, path string) error {
	out := m.layout.TorrentPath(path)

	rpc, err := m.session(ctx)
	if err != nil {
		return m.rpcFailed(path, "session-get", err)
	}

	torrents, err := rpc.TorrentGet(ctx, transmission.FieldTorrentFile, transmission.FieldID)
	if err != nil {
		return m.rpcFailed(path, "torrent-get", err)
	}

	for _, t := range torrents {
		if t.TorrentFile != out {
			continue
		}
		if err := rpc.TorrentRemove(ctx, []int64{t.ID}, false); err != nil {
			return m.rpcFailed(path, "torrent-remove", err)
		}
		m.log.Debug().Str("path", path).Int64("id", t.ID).Msg("torrent removed from transmission")
	}

	if err := m.fs.Remove(out); err != nil && !os.IsNotExist(err) {
		m.log.Warn().Err(err).Str("path", out).Msg("error removing torrent file")
	}

	l := m.log.Info().Str("path", path)
	if i, err := m.items.Get(path); err == nil {
		l = l.Str("hash", i.InfoHash)
	}
	m.registry.Load()
	if magnet, ok := m.registry.Get(path); ok {
		l = l.Str("staleMagnet", magnet)
	}
	if err := m.items.Delete(path); err != nil {
		return fmt.Errorf("error forgetting published item: %w", err)
	}

	m.stats.Add(ActionUnpublished, path)
	l.Msg("unpublished")

	return nil
}

// Modify is Delete followed by Create, whatever Delete found.
func (m *Manager) Modify(ctx context.Context, path string) error {
	if err := m.Delete(ctx, path); err != nil {
		return err
	}

	return m.Create(ctx, path)
}

// Handle dispatches one normalized action on a relative path.
func (m *Manager) Handle(ctx context.Context, op Op, path string) error {
	switch op {
	case OpCreate:
		return m.Create(ctx, path)
	case OpDelete:
		return m.Delete(ctx, path)
	case OpModify:
		return m.Modify(ctx, path)
	}

	return fmt.Errorf("unknown action %s", op)
}
