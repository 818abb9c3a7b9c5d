package log

import (
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"
)

var _ badger.Logger = &Badger{}

type Badger struct {
	L zerolog.Logger
}

func (l *Badger) Errorf(m string, f ...interface{}) {
	l.L.Error().Msgf(strings.ReplaceAll(m, "\n", ""), f...)
}

func (l *Badger) Warningf(m string, f ...interface{}) {
	l.L.Warn().Msgf(strings.ReplaceAll(m, "\n", ""), f...)
}

// badger is chatty at info level, keep it out of the box log unless debugging
func (l *Badger) Infof(m string, f ...interface{}) {
	l.L.Debug().Msgf(strings.ReplaceAll(m, "\n", ""), f...)
}

func (l *Badger) Debugf(m string, f ...interface{}) {
	l.L.Debug().Msgf(strings.ReplaceAll(m, "\n", ""), f...)
}
