package internal

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const serviceName = "ezlfp-core"

// Logger tags every entry with the service name and environment. Timestamps
// follow zerolog.TimeFieldFormat, which main sets once for the process.
type Logger struct {
	level LogLevel
	zl    zerolog.Logger
}

func NewLogger(cfg *Config) *Logger {
	return NewLoggerWithWriter(os.Stdout, LogLevel(cfg.LogLevel), cfg.AppEnv)
}

func NewLoggerWithWriter(w io.Writer, level LogLevel, environment string) *Logger {
	if level == "" {
		level = LogLevelInfo
	}

	zl := zerolog.New(w).
		Level(toZerologLevel(level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("environment", environment).
		Logger()

	return &Logger{level: level, zl: zl}
}

// NopLogger discards everything. Used where no logger was injected.
func NopLogger() *Logger {
	return &Logger{level: LogLevelError, zl: zerolog.Nop()}
}

func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return toZerologLevel(level) >= toZerologLevel(l.level)
}

// newBuilder returns a no-op builder below the logger's level so callers
// skip field encoding entirely.
func (l *Logger) newBuilder(level LogLevel, message string) *LogBuilder {
	if !l.shouldLog(level) {
		return &LogBuilder{message: message}
	}
	return &LogBuilder{event: l.zl.WithLevel(toZerologLevel(level)), message: message}
}

func (l *Logger) Debug(message string) *LogBuilder {
	return l.newBuilder(LogLevelDebug, message)
}

func (l *Logger) Info(message string) *LogBuilder {
	return l.newBuilder(LogLevelInfo, message)
}

func (l *Logger) Warn(message string) *LogBuilder {
	return l.newBuilder(LogLevelWarn, message)
}

func (l *Logger) Error(message string) *LogBuilder {
	return l.newBuilder(LogLevelError, message)
}

// LogBuilder wraps a zerolog event. A disabled level yields a nil event and
// every method becomes a no-op.
type LogBuilder struct {
	event   *zerolog.Event
	message string
}

func (b *LogBuilder) Component(component string) *LogBuilder {
	b.event.Str("component", component)
	return b
}

func (b *LogBuilder) Operation(operation string) *LogBuilder {
	b.event.Str("operation", operation)
	return b
}

func (b *LogBuilder) Duration(duration time.Duration) *LogBuilder {
	b.event.Int64("duration_ms", duration.Milliseconds())
	return b
}

func (b *LogBuilder) HTTP(method, path string, statusCode int) *LogBuilder {
	if method != "" {
		b.event.Str("method", method)
	}
	if path != "" {
		b.event.Str("path", path)
	}
	if statusCode != 0 {
		b.event.Int("status_code", statusCode)
	}
	return b
}

func (b *LogBuilder) Request(userAgent, remoteAddr, requestID string) *LogBuilder {
	if userAgent != "" {
		b.event.Str("user_agent", userAgent)
	}
	if remoteAddr != "" {
		b.event.Str("remote_addr", remoteAddr)
	}
	if requestID != "" {
		b.event.Str("request_id", requestID)
	}
	return b
}

func (b *LogBuilder) Cache(hit bool, key string) *LogBuilder {
	b.event.Bool("cache_hit", hit).Str("cache_key", key)
	return b
}

func (b *LogBuilder) Player(riotID, puuid string) *LogBuilder {
	if riotID != "" {
		b.event.Str("riot_id", riotID)
	}
	if puuid != "" {
		if len(puuid) > 20 {
			puuid = puuid[:20] + "..."
		}
		b.event.Str("puuid", puuid)
	}
	return b
}

func (b *LogBuilder) Err(err error) *LogBuilder {
	if err != nil {
		b.event.Str("error", err.Error())
		if kind := KindOf(err); kind != "" {
			b.event.Str("error_kind", string(kind))
		}
	}
	return b
}

func (b *LogBuilder) ErrorCode(code string) *LogBuilder {
	b.event.Str("error_code", code)
	return b
}

func (b *LogBuilder) Meta(key string, value interface{}) *LogBuilder {
	b.event.Interface(key, value)
	return b
}

func (b *LogBuilder) Log() {
	b.event.Msg(b.message)
}
