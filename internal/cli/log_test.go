package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("stage done") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("stage done") }, false},
		{"debug at debug", LogDebug, func(l *log.Logger) { l.Debug("stage done") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("unrouted") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("logged = %v, want %v (%q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("parsed", "devices", 3)
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("line %q does not start with an HH:MM:SS.cc timestamp", buf.String())
	}
	if !strings.Contains(buf.String(), "devices=3") {
		t.Errorf("line %q is missing the devices field", buf.String())
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, LogInfo)).done("Rendered 3 device(s)")
	if !regexp.MustCompile(`Rendered 3 device\(s\) \(\d+m?s\)`).MatchString(buf.String()) {
		t.Errorf("progress line = %q", buf.String())
	}
}
