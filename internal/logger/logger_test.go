package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{" error ", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.level), tt.level)
	}
}

func TestNewWithOutput(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput(config.Log{Level: "info", Format: "json"}, &buf)

		log.WithField("books", 3).Info("backup finished")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "backup finished", entry["msg"])
		assert.Equal(t, float64(3), entry["books"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput(config.Log{Level: "info", Format: "text"}, &buf)

		log.Debug("hidden")
		assert.Empty(t, buf.String())

		log.Info("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}
