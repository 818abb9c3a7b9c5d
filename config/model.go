package config

import "time"

// Root is the main yaml config object of a box
type Root struct {
	Tracker      string        `yaml:"tracker"`
	Transmission *Transmission `yaml:"transmission"`
	Comment      Comment       `yaml:"comment"`
	Builder      *Builder      `yaml:"builder,omitempty"`
}

type Transmission struct {
	URL string `yaml:"url"`
	// Timeout in seconds for every RPC round trip
	Timeout int `yaml:"timeout,omitempty"`
}

func (t *Transmission) RequestTimeout() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

type BuilderKind string

const (
	BuilderTransmissionCreate BuilderKind = "transmission-create"
	BuilderNative             BuilderKind = "native"
)

type Builder struct {
	Kind BuilderKind `yaml:"kind"`
	// Command overrides the transmission-create executable path
	Command string `yaml:"command,omitempty"`
	// PieceLength is only used by the native builder, in bytes
	PieceLength int64 `yaml:"piece_length,omitempty"`
}

// Log holds process level logging settings. It is built from flags, not from
// the box document, because logging starts before any config is loaded.
type Log struct {
	Debug      bool
	MaxBackups int
	MaxSize    int
	MaxAge     int
	Path       string
}

// HTTPGlobal enables the read-only status API when Port is set.
type HTTPGlobal struct {
	Port int
	IP   string
}

func AddDefaults(r *Root) *Root {
	if r.Transmission == nil {
		r.Transmission = &Transmission{}
	}

	if r.Transmission.URL == "" {
		r.Transmission.URL = defaultTransmissionURL
	}

	if r.Transmission.Timeout <= 0 {
		r.Transmission.Timeout = 10
	}

	if r.Builder == nil {
		r.Builder = &Builder{}
	}

	if r.Builder.Kind == "" {
		r.Builder.Kind = BuilderTransmissionCreate
	}

	if r.Builder.Command == "" {
		r.Builder.Command = "transmission-create"
	}

	if r.Builder.PieceLength == 0 {
		r.Builder.PieceLength = 256 * 1024
	}

	return r
}

func AddLogDefaults(l *Log) *Log {
	if l.MaxBackups == 0 {
		l.MaxBackups = 4
	}

	// lumberjack counts in megabytes, the smallest useful cap
	if l.MaxSize == 0 {
		l.MaxSize = 1
	}

	return l
}
