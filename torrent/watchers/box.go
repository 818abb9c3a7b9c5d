package watchers

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BoxWatcher turns fsnotify notifications on the box root into Events. It
// does not recurse: only direct children of the box are observed.
type BoxWatcher struct {
	root string
	w    *fsnotify.Watcher

	events chan Event
	errors chan error

	log  zerolog.Logger
	once sync.Once
	done chan struct{}
}

func NewBoxWatcher(root string) (*BoxWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &BoxWatcher{
		root:   root,
		w:      w,
		events: make(chan Event, 64),
		errors: make(chan error, 1),
		log:    log.Logger.With().Str("component", "box-watcher").Str("box", root).Logger(),
		done:   make(chan struct{}),
	}, nil
}

func (bw *BoxWatcher) Events() <-chan Event { return bw.events }
func (bw *BoxWatcher) Errors() <-chan error { return bw.errors }

func (bw *BoxWatcher) Start() error {
	if err := bw.w.Add(bw.root); err != nil {
		return err
	}

	go bw.loop()

	bw.log.Info().Msg("box watcher started")
	return nil
}

func (bw *BoxWatcher) loop() {
	defer close(bw.events)

	for {
		select {
		case <-bw.done:
			return
		case fe, ok := <-bw.w.Events:
			if !ok {
				return
			}
			ev, ok := translate(fe)
			if !ok {
				continue
			}
			bw.log.Debug().Str("kind", ev.Kind.String()).Str("path", ev.Path).Msg("event")
			select {
			case bw.events <- ev:
			case <-bw.done:
				return
			}
		case err, ok := <-bw.w.Errors:
			if !ok {
				return
			}
			bw.log.Error().Err(err).Msg("watcher error")
			select {
			case bw.errors <- err:
			default:
			}
		}
	}
}

// translate maps one fsnotify op to an Event. A rename only reports the old
// name; fsnotify delivers the new one as a separate Create.
func translate(fe fsnotify.Event) (Event, bool) {
	ev := Event{Path: fe.Name}
	switch {
	case fe.Has(fsnotify.Create):
		ev.Kind = Created
	case fe.Has(fsnotify.Write):
		ev.Kind = Modified
	case fe.Has(fsnotify.Remove), fe.Has(fsnotify.Rename):
		ev.Kind = Deleted
	default:
		return ev, false
	}

	if ev.Kind != Deleted {
		if fi, err := os.Stat(fe.Name); err == nil {
			ev.IsDir = fi.IsDir()
		}
	}

	return ev, true
}

func (bw *BoxWatcher) Close() error {
	var err error
	bw.once.Do(func() {
		close(bw.done)
		err = bw.w.Close()
	})
	return err
}
