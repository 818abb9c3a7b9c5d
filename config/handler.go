package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultTransmissionURL = "http://127.0.0.1:9091/transmission/rpc"

const defaultConfig = `tracker: udp://open.demonii.com:1337/announce
transmission:
  url: ` + defaultTransmissionURL + `
comment:
  - Torrent published by puntbox!
  - !br
  - "Created: "
  - !timestamp
  - !br
  - "Contents: "
  - !filename
`

var (
	ErrMissingTracker = errors.New("tracker config missing")
	ErrUnstableFile   = errors.New("config file keeps changing while being read")
)

// Handler reads the box config document. Every Get builds a brand new Root;
// configs are never patched in place.
type Handler struct {
	p string

	attempts int
	settle   time.Duration
	stat     func(string) (os.FileInfo, error)
}

func NewHandler(path string) *Handler {
	return &Handler{
		p:        path,
		attempts: 5,
		settle:   100 * time.Millisecond,
		stat:     os.Stat,
	}
}

func (c *Handler) Path() string {
	return c.p
}

// WriteDefault creates the default config document if none exists. It
// reports whether a file was written.
func (c *Handler) WriteDefault() (bool, error) {
	if _, err := os.Stat(c.p); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.WriteFile(c.p, []byte(defaultConfig), 0644); err != nil {
		return false, fmt.Errorf("error writing default configuration file: %w", err)
	}

	return true, nil
}

// GetRaw returns the file contents once two stats around the read agree,
// so a document that an editor is still writing is not parsed half done.
func (c *Handler) GetRaw() ([]byte, error) {
	for i := 0; i < c.attempts; i++ {
		before, err := c.stat(c.p)
		if err != nil {
			return nil, err
		}

		b, err := os.ReadFile(c.p)
		if err != nil {
			return nil, err
		}

		after, err := c.stat(c.p)
		if err != nil {
			return nil, err
		}

		if before.Size() == after.Size() &&
			before.ModTime().Equal(after.ModTime()) &&
			int64(len(b)) == after.Size() {
			return b, nil
		}

		time.Sleep(c.settle)
	}

	return nil, ErrUnstableFile
}

func (c *Handler) Get() (*Root, error) {
	b, err := c.GetRaw()
	if err != nil {
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}

	return Parse(b)
}

// Parse decodes and validates a config document.
func Parse(b []byte) (*Root, error) {
	conf := &Root{}
	if err := yaml.Unmarshal(b, conf); err != nil {
		return nil, fmt.Errorf("error parsing configuration file: %w", err)
	}

	if conf.Tracker == "" {
		return nil, ErrMissingTracker
	}

	return AddDefaults(conf), nil
}
