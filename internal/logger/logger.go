// Package logger provides the shared zap sugared logger. The level comes from
// LOG_LEVEL and the encoder from ENVIRONMENT (production uses JSON).
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

// IsTest switches the logger to a no-op sink. Set it from TestMain or init in tests.
var IsTest bool

func initLogger() {
	if IsTest {
		logger = zap.NewNop().Sugar()
		return
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if os.Getenv("ENVIRONMENT") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	logger = zapLogger.Sugar()
}

// GetLogger returns the process-wide logger, initialising it on first use.
func GetLogger() *zap.SugaredLogger {
	once.Do(initLogger)
	return logger
}

// Close flushes buffered entries. Call it before the process exits.
func Close() error {
	if logger == nil || IsTest {
		return nil
	}
	if err := logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "error syncing logger: %v\n", err)
		return err
	}
	return nil
}

// MaskKey keeps the first and last two characters of an API key for log lines.
func MaskKey(key string) string {
	if len(key) < 8 {
		return "****"
	}
	return key[:2] + "..." + key[len(key)-2:]
}
