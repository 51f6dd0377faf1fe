package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{name: "debug text", level: "debug", format: "text", wantLevel: logrus.DebugLevel},
		{name: "invalid level falls back to info", level: "loud", format: "", wantLevel: logrus.InfoLevel},
		{name: "json format", level: "warn", format: "JSON", wantLevel: logrus.WarnLevel, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.level, tt.format)
			assert.Equal(t, tt.wantLevel, l.GetLevel())
			_, isJSON := l.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}
