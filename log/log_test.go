package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBadgerLevels(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l := &Badger{L: zerolog.New(&buf).Level(zerolog.InfoLevel)}

	l.Infof("opened %s\n", "db")
	l.Debugf("noise\n")
	require.Empty(buf.String())

	l.Warningf("slow %d\n", 3)
	require.Contains(buf.String(), `"level":"warn"`)
	require.Contains(buf.String(), `"message":"slow 3"`)

	buf.Reset()
	l.Errorf("broken")
	require.Contains(buf.String(), `"level":"error"`)
}
