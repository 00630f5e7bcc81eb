package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger per kategori. Default-nya no-op supaya package lain dan test
// tetap aman dipanggil sebelum InitLoggers.
var (
	ErrorLogger    = zap.NewNop()
	AuditLogger    = zap.NewNop()
	RequestLogger  = zap.NewNop()
	SecurityLogger = zap.NewNop()
	SystemLogger   = zap.NewNop()
	ContextLogger  = zap.NewNop()
)

func newLogger(filePath string, level zapcore.Level) (*zap.Logger, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	ws := zapcore.AddSync(file)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		ws,
		level,
	)
	return zap.New(core), nil
}

// InitLoggers membuat satu file log per kategori di dalam dir. minLevel
// (LOG_LEVEL) menaikkan level minimum kategori yang lebih verbose.
func InitLoggers(dir, minLevel string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	floor, err := zapcore.ParseLevel(minLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	at := func(level zapcore.Level) zapcore.Level {
		if level < floor {
			return floor
		}
		return level
	}

	targets := []struct {
		dst   **zap.Logger
		file  string
		level zapcore.Level
	}{
		{&ErrorLogger, "errors.log", zapcore.ErrorLevel},
		{&AuditLogger, "audit.log", at(zapcore.InfoLevel)},
		{&RequestLogger, "request.log", at(zapcore.InfoLevel)},
		{&SecurityLogger, "security.log", zapcore.WarnLevel},
		{&SystemLogger, "system.log", at(zapcore.InfoLevel)},
		{&ContextLogger, "context.log", at(zapcore.DebugLevel)},
	}
	for _, target := range targets {
		l, err := newLogger(filepath.Join(dir, target.file), target.level)
		if err != nil {
			return fmt.Errorf("create %s logger: %w", target.file, err)
		}
		*target.dst = l
	}
	return nil
}

func SyncLoggers() {
	_ = ErrorLogger.Sync()
	_ = AuditLogger.Sync()
	_ = RequestLogger.Sync()
	_ = SecurityLogger.Sync()
	_ = SystemLogger.Sync()
	_ = ContextLogger.Sync()
}
