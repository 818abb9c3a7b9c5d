package store

import (
	"encoding/json"
	"fmt"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog/log"

	dlog "github.com/jkaberg/puntbox/log"
)

var _ Store = &DB{}

const itemRootKey = "/item/"

type DB struct {
	db       *badger.DB
	inMemory bool
}

func NewDB(path string) (*DB, error) {
	return open(badger.DefaultOptions(path).WithValueLogFileSize(1<<26 - 1))
}

// NewInMemory opens a store that lives only as long as the process.
func NewInMemory() (*DB, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*DB, error) {
	l := log.Logger.With().Str("component", "item-store").Logger()

	db, err := badger.Open(opts.WithLogger(&dlog.Badger{L: l}))
	if err != nil {
		return nil, err
	}

	if !opts.InMemory {
		err = db.RunValueLogGC(0.5)
		if err != nil && err != badger.ErrNoRewrite {
			return nil, err
		}
	}

	return &DB{
		db:       db,
		inMemory: opts.InMemory,
	}, nil
}

func itemKey(p string) []byte {
	return []byte(itemRootKey + p)
}

// Put stores an item. The magnet is parsed first and its info hash is the
// one recorded.
func (l *DB) Put(i *Item) error {
	spec, err := metainfo.ParseMagnetUri(i.Magnet)
	if err != nil {
		return fmt.Errorf("invalid magnet for %q: %w", i.Path, err)
	}
	i.InfoHash = spec.InfoHash.HexString()

	b, err := json.Marshal(i)
	if err != nil {
		return err
	}

	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(i.Path), b)
	})
	if err != nil || l.inMemory {
		return err
	}

	return l.db.Sync()
}

func (l *DB) Get(p string) (*Item, error) {
	out := &Item{}
	err := l.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(itemKey(p))
		if err != nil {
			return err
		}
		return it.Value(func(v []byte) error {
			return json.Unmarshal(v, out)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Delete removes an item. Deleting an unknown path is not an error.
func (l *DB) Delete(p string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(itemKey(p))
	})
}

// List returns every item ordered by path.
func (l *DB) List() ([]*Item, error) {
	tx := l.db.NewTransaction(false)
	defer tx.Discard()

	it := tx.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(itemRootKey)
	var out []*Item
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		i := &Item{}
		if err := it.Item().Value(func(v []byte) error {
			return json.Unmarshal(v, i)
		}); err != nil {
			return nil, err
		}
		out = append(out, i)
	}

	return out, nil
}

func (l *DB) Close() error {
	return l.db.Close()
}
