package config

import (
	"log/slog"

	"git.home.luguber.info/inful/routegen/internal/foundation/normalization"
)

// CacheBackend selects where incremental cache records live.
type CacheBackend string

const (
	CacheBackendFS     CacheBackend = "fs"
	CacheBackendSQLite CacheBackend = "sqlite"
	CacheBackendNone   CacheBackend = "none"
)

var cacheBackendNormalizer = normalization.NewNormalizer(map[string]CacheBackend{
	"fs":     CacheBackendFS,
	"file":   CacheBackendFS,
	"sqlite": CacheBackendSQLite,
	"none":   CacheBackendNone,
	"off":    CacheBackendNone,
}, "")

// NormalizeCacheBackend returns "" for unknown values.
func NormalizeCacheBackend(raw string) CacheBackend {
	return cacheBackendNormalizer.Normalize(raw)
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// SlogLevel maps the level onto slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch NormalizeLogLevel(string(l)) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// RetryBackoffMode enumerates retry backoff strategies.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
	"exp":         RetryBackoffExponential,
}, "")

// NormalizeRetryBackoffMode returns "" for unknown values.
func NormalizeRetryBackoffMode(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}
