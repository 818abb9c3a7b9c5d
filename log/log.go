package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jkaberg/puntbox/config"
)

const FileName = "log.txt"

func Load(config *config.Log) {
	var writers []io.Writer

	// fix console colors on windows
	cso := colorable.NewColorableStdout()
	writers = append(writers, zerolog.ConsoleWriter{Out: cso})
	if config.Path != "" {
		if rf := newRollingFile(config); rf != nil {
			writers = append(writers, rf)
		}
	}

	mw := io.MultiWriter(writers...)
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	log.Logger = log.Output(mw)

	l := zerolog.InfoLevel
	if config.Debug {
		l = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(l)
}

func newRollingFile(config *config.Log) io.Writer {
	if err := os.MkdirAll(config.Path, 0744); err != nil {
		log.Error().Err(err).Str("path", config.Path).Msg("can't create log directory")
		return nil
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(config.Path, FileName),
		MaxBackups: config.MaxBackups,
		MaxSize:    config.MaxSize,
		MaxAge:     config.MaxAge,
	}
}
