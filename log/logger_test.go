package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/vgmlink/types"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	meta := &types.SessionMeta{SessionID: "sess-1", Source: "song.vgz", Port: "COM3"}
	l := NewLoggerTo(&buf, meta, zapcore.DebugLevel)

	l.Info("handshake complete", map[string]any{"board": "mega"})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	entry := lines[0]
	if entry["session_id"] != "sess-1" {
		t.Errorf("session_id = %v, want sess-1", entry["session_id"])
	}
	if entry["port"] != "COM3" {
		t.Errorf("port = %v, want COM3", entry["port"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["message"] != "handshake complete" {
		t.Errorf("message = %v", entry["message"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["board"] != "mega" {
		t.Errorf("fields = %v, want board=mega", entry["fields"])
	}
}

func TestLogger_OmitsEmptyPort(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, &types.SessionMeta{SessionID: "s", Source: "x.vgm"}, zapcore.DebugLevel)
	l.Warn("x", nil)

	entry := decodeLines(t, &buf)[0]
	if _, ok := entry["port"]; ok {
		t.Errorf("port present: %v", entry["port"])
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, &types.SessionMeta{SessionID: "s", Source: "x.vgm"}, zapcore.WarnLevel)
	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Error("shown", nil)

	if got := len(decodeLines(t, &buf)); got != 1 {
		t.Errorf("got %d lines, want 1", got)
	}
}

func TestLogger_WithBoardAndSugar(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, &types.SessionMeta{SessionID: "s", Source: "x.vgm"}, zapcore.DebugLevel).WithBoard("uno")
	l.Sugar().With("chunk", 3).Debugf("resent %d bytes", 64)

	entry := decodeLines(t, &buf)[0]
	if entry["message"] != "resent 64 bytes" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["board"] != "uno" {
		t.Errorf("board = %v, want uno", entry["board"])
	}
	if entry["chunk"] != float64(3) {
		t.Errorf("chunk = %v, want 3", entry["chunk"])
	}
	if entry["session_id"] != "s" {
		t.Errorf("session_id = %v, want s", entry["session_id"])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("dropped", map[string]any{"k": 1})
	l.Sugar().Infof("dropped %d", 1)
	_ = l.Sync()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
