package host

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the host package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the host package's logger.
// This must be called before any providers are registered.
func SetLogger(l *zap.Logger) {
	logger = l
}

func zapCap(c Capability) zap.Field { return zap.String("capability", string(c)) }
func zapNS(ns string) zap.Field { return zap.String("namespace", ns) }
