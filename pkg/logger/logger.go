package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap.Logger so callers don't import zap directly
type Logger struct {
	*zap.Logger
	config Config
}

// Config holds logger configuration
type Config struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// New creates a new logger with the given configuration
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, writer(cfg), level)

	return &Logger{
		Logger: zap.New(core),
		config: cfg,
	}, nil
}

// writer selects the log destination: console only, or console plus a
// rotated file when a path is configured.
func writer(cfg Config) zapcore.WriteSyncer {
	if cfg.File == "" {
		return zapcore.AddSync(os.Stdout)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return zapcore.AddSync(os.Stdout)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   true,
	}

	return zapcore.AddSync(io.MultiWriter(os.Stdout, fileWriter))
}

// Default creates a console logger at info level, used before the
// configuration file has been loaded.
func Default() *Logger {
	log, err := New(Config{Level: "info", Format: "console"})
	if err != nil {
		zapLogger, _ := zap.NewProduction()
		return &Logger{Logger: zapLogger}
	}
	return log
}

// WithComponent returns a logger with a component field
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With(zap.String("component", component)),
		config: l.config,
	}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() {
	_ = l.Logger.Sync()
}

// Convenience re-exports so call sites read like the rest of the codebase

func String(key, value string) zap.Field {
	return zap.String(key, value)
}

func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

func Uint8(key string, value uint8) zap.Field {
	return zap.Uint8(key, value)
}

func Uint32(key string, value uint32) zap.Field {
	return zap.Uint32(key, value)
}

func Uint64(key string, value uint64) zap.Field {
	return zap.Uint64(key, value)
}

func Error(err error) zap.Field {
	return zap.Error(err)
}
