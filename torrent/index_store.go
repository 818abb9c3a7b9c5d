package torrent

import (
	"github.com/jkaberg/puntbox/torrent/store"
)

// ItemStore abstracts the persistent published item records used by the
// manager. The registry document stays the published contract; this is the
// bookkeeping behind the status API.
type ItemStore interface {
	Put(i *store.Item) error
	Get(path string) (*store.Item, error)
	Delete(path string) error
}

var _ ItemStore = store.Store(nil)

// nopItems is used when no item store is wired.
type nopItems struct{}

func (nopItems) Put(*store.Item) error           { return nil }
func (nopItems) Get(string) (*store.Item, error) { return nil, store.ErrNotFound }
func (nopItems) Delete(string) error             { return nil }
