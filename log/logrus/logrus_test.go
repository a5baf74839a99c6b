package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/flexjson/codec"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := LogrusLogger{E: logrus.NewEntry(base)}

	l.Debug("d", codec.Fields{"bytes": 3})
	l.Info("i", nil)
	l.Warn("w", codec.Fields{"k": "v"})
	l.Error("e", codec.Fields{"error": "boom"})

	entries := hook.AllEntries()
	require.Len(t, entries, 4)
	assert.Equal(t, logrus.DebugLevel, entries[0].Level)
	assert.Equal(t, 3, entries[0].Data["bytes"])
	assert.Equal(t, logrus.WarnLevel, entries[2].Level)

	last := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "e", last.Message)
	assert.Equal(t, "boom", last.Data["error"])
}
