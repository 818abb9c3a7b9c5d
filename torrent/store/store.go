package store

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("item not found")

// Item is one published path as recorded after a successful create.
type Item struct {
	Path        string    `json:"path"`
	TorrentFile string    `json:"torrentFile"`
	InfoHash    string    `json:"infoHash"`
	Magnet      string    `json:"magnet"`
	PublishedAt time.Time `json:"publishedAt"`
}

type Lister interface {
	List() ([]*Item, error)
}

type Store interface {
	Lister

	Put(i *Item) error
	Get(path string) (*Item, error)
	Delete(path string) error
}
