package torrent

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Registry is the published path to magnet URI document surfaced to users.
// It is only touched from the single action worker.
type Registry struct {
	fs   afero.Fs
	path string
	log  zerolog.Logger

	magnets map[string]string
}

func NewRegistry(fs afero.Fs, path string) *Registry {
	return &Registry{
		fs:      fs,
		path:    path,
		log:     log.Logger.With().Str("component", "registry").Logger(),
		magnets: make(map[string]string),
	}
}

// Load replaces the in-memory mapping with the persisted one. A missing or
// unreadable document yields an empty mapping.
func (r *Registry) Load() {
	r.magnets = make(map[string]string)

	b, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		r.log.Debug().Err(err).Str("path", r.path).Msg("no readable registry, starting empty")
		return
	}

	var m map[string]string
	if err := yaml.Unmarshal(b, &m); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("corrupt registry, starting empty")
		return
	}

	for k, v := range m {
		r.magnets[k] = v
	}
}

func (r *Registry) Merge(path, magnet string) {
	r.magnets[path] = magnet
}

// Remove drops an entry. Unpublishing does not call it: entries of deleted
// paths are left in the document.
func (r *Registry) Remove(path string) {
	delete(r.magnets, path)
}

func (r *Registry) Get(path string) (string, bool) {
	m, ok := r.magnets[path]
	return m, ok
}

func (r *Registry) Magnets() map[string]string {
	out := make(map[string]string, len(r.magnets))
	for k, v := range r.magnets {
		out[k] = v
	}
	return out
}

// Save rewrites the document through a hidden temporary file and a rename.
// The encoded bytes are decoded again first, so a document that could not be
// loaded back is never written.
func (r *Registry) Save() error {
	b, err := yaml.Marshal(r.magnets)
	if err != nil {
		return fmt.Errorf("error encoding registry: %w", err)
	}

	var check map[string]string
	if err := yaml.Unmarshal(b, &check); err != nil || len(check) != len(r.magnets) {
		return fmt.Errorf("error encoding registry: document does not read back (%v)", err)
	}
	for k, v := range r.magnets {
		if check[k] != v {
			return fmt.Errorf("error encoding registry: entry %q does not read back", k)
		}
	}

	dir, base := filepath.Split(r.path)
	tmp := filepath.Join(dir, "."+base+".tmp")
	if err := afero.WriteFile(r.fs, tmp, b, 0644); err != nil {
		return fmt.Errorf("error writing registry: %w", err)
	}

	if err := r.fs.Rename(tmp, r.path); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("error replacing registry: %w", err)
	}

	return nil
}
