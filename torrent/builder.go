package torrent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jkaberg/puntbox/config"
)

var ErrBuildFailed = errors.New("failed to create torrent")

// BuildRequest describes one torrent file to produce.
type BuildRequest struct {
	Output  string
	Comment string
	Tracker string
	Source  string
}

// Builder turns a file or directory into a torrent file.
type Builder interface {
	Build(ctx context.Context, r *BuildRequest) error
}

// NewBuilder returns the builder selected by the box config.
func NewBuilder(c *config.Builder) Builder {
	if c.Kind == config.BuilderNative {
		return NewNativeBuilder(c.PieceLength)
	}

	return NewExternalBuilder(c.Command)
}

// ExternalBuilder runs transmission-create.
type ExternalBuilder struct {
	command string
	log     zerolog.Logger
}

func NewExternalBuilder(command string) *ExternalBuilder {
	return &ExternalBuilder{
		command: command,
		log:     log.Logger.With().Str("component", "builder").Logger(),
	}
}

func (b *ExternalBuilder) Build(ctx context.Context, r *BuildRequest) error {
	if err := os.MkdirAll(filepath.Dir(r.Output), 0744); err != nil {
		return fmt.Errorf("error creating torrent folder: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.command,
		"-o", r.Output,
		"-c", r.Comment,
		"-t", r.Tracker,
		r.Source,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if out := strings.TrimSpace(stdout.String()); out != "" {
		b.log.Debug().Str("source", r.Source).Msg(out)
	}
	if out := strings.TrimSpace(stderr.String()); out != "" {
		b.log.Error().Str("source", r.Source).Msg(out)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBuildFailed, b.command, err)
	}

	return nil
}

// NativeBuilder hashes the source in process with anacrolix metainfo.
type NativeBuilder struct {
	pieceLength int64
	now         func() time.Time
}

func NewNativeBuilder(pieceLength int64) *NativeBuilder {
	return &NativeBuilder{
		pieceLength: pieceLength,
		now:         time.Now,
	}
}

func (b *NativeBuilder) Build(ctx context.Context, r *BuildRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info := metainfo.Info{PieceLength: b.pieceLength}
	if err := info.BuildFromFilePath(r.Source); err != nil {
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	ib, err := bencode.Marshal(info)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	mi := metainfo.MetaInfo{
		InfoBytes:    ib,
		Announce:     r.Tracker,
		Comment:      r.Comment,
		CreatedBy:    "puntbox",
		CreationDate: b.now().Unix(),
	}

	if err := os.MkdirAll(filepath.Dir(r.Output), 0744); err != nil {
		return fmt.Errorf("error creating torrent folder: %w", err)
	}

	f, err := os.Create(r.Output)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	defer f.Close()

	if err := mi.Write(f); err != nil {
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	return f.Close()
}
