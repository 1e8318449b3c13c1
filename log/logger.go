// Package log wraps zap with the identity of one streaming session.
//
// Logger takes structured fields and is used by the transport and the
// compiler. Logger.Sugar gives printf-style calls for debug detail. Both
// write JSON lines to stderr so stdout stays free for command output.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/vgmlink/types"
)

// Logger logs with session_id, source and port on every entry, plus the
// board once a handshake has named it.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger is the printf-style view of a Logger.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger logs to stderr at level.
func NewLogger(meta *types.SessionMeta, level zapcore.Level) *Logger {
	return NewLoggerTo(os.Stderr, meta, level)
}

// NewLoggerTo logs to w at level.
func NewLoggerTo(w io.Writer, meta *types.SessionMeta, level zapcore.Level) *Logger {
	fields := []zap.Field{
		zap.String("session_id", meta.SessionID),
		zap.String("source", meta.Source),
	}
	if meta.Port != "" {
		fields = append(fields, zap.String("port", meta.Port))
	}
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return &Logger{zap: zap.New(core).With(fields...)}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// ParseLevel maps a level name to a zap level. Unknown names are info.
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// WithBoard returns a logger that also carries the negotiated board.
func (l *Logger) WithBoard(name string) *Logger {
	return &Logger{zap: l.zap.With(zap.String("board", name))}
}

func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns the printf-style view sharing this logger's context.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

func (s *SugaredLogger) Debugf(template string, args ...any) { s.sugar.Debugf(template, args...) }
func (s *SugaredLogger) Infof(template string, args ...any)  { s.sugar.Infof(template, args...) }
func (s *SugaredLogger) Warnf(template string, args ...any)  { s.sugar.Warnf(template, args...) }
func (s *SugaredLogger) Errorf(template string, args ...any) { s.sugar.Errorf(template, args...) }

// With adds key/value pairs to the context.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
