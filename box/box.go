// Package box describes the on-disk layout of a watched directory.
package box

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jkaberg/puntbox/config"
)

const (
	ConfigFileName   = "config.yaml"
	RegistryFileName = "magnets.yaml"
	InternalDirName  = ".puntbox"

	torrentsDirName = "torrents"
	dbDirName       = "db"
	markerFileName  = "ignore_this_directory_please"
)

// Layout resolves every path the program touches inside a box.
type Layout struct {
	Root string
}

func New(root string) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid box path %q: %w", root, err)
	}

	return &Layout{Root: abs}, nil
}

func (l *Layout) ConfigPath() string   { return filepath.Join(l.Root, ConfigFileName) }
func (l *Layout) RegistryPath() string { return filepath.Join(l.Root, RegistryFileName) }
func (l *Layout) InternalDir() string  { return filepath.Join(l.Root, InternalDirName) }
func (l *Layout) TorrentsDir() string  { return filepath.Join(l.InternalDir(), torrentsDirName) }
func (l *Layout) DBDir() string        { return filepath.Join(l.InternalDir(), dbDirName) }

// TorrentPath is where the torrent file of a published relative path lives.
func (l *Layout) TorrentPath(rel string) string {
	return filepath.Join(l.TorrentsDir(), rel+".torrent")
}

// SourcePath is the absolute path of a published relative path.
func (l *Layout) SourcePath(rel string) string {
	return filepath.Join(l.Root, rel)
}

// Init creates the box and its internal folders. It writes the default
// config document when none exists and reports whether it did.
func (l *Layout) Init() (bool, error) {
	for _, d := range []string{l.Root, l.InternalDir(), l.TorrentsDir()} {
		if err := os.MkdirAll(d, 0744); err != nil {
			return false, fmt.Errorf("error creating %s: %w", d, err)
		}
	}

	marker := filepath.Join(l.InternalDir(), markerFileName)
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		if err := os.WriteFile(marker, nil, 0644); err != nil {
			return false, fmt.Errorf("error creating marker file: %w", err)
		}
	}

	return config.NewHandler(l.ConfigPath()).WriteDefault()
}
