// Package log is the process-wide levelled key/value logger. The call
// surface stays tiny (Debug/Info/Warn/Error with trailing key/value pairs);
// records are written through zerolog.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	root     atomic.Pointer[zerolog.Logger]
	initOnce sync.Once
	minLevel atomic.Value // Level
)

// initLogger builds the default logger: console format on stderr, INFO.
func initLogger() {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		minLevel.Store(LevelInfo)
		store(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	})
}

func store(w io.Writer) {
	l := zerolog.New(w).Level(zerologLevel(currentLevel())).With().Timestamp().Logger()
	root.Store(&l)
}

func currentLevel() Level {
	if v, ok := minLevel.Load().(Level); ok {
		return v
	}
	return LevelInfo
}

// SetLevel changes the minimum level for all subsequent records.
func SetLevel(l Level) {
	initLogger()
	minLevel.Store(l)
	cur := root.Load().Level(zerologLevel(l))
	root.Store(&cur)
}

// SetOutput redirects records to w as JSON lines. Tests use this to
// capture output; the CLI keeps the console writer.
func SetOutput(w io.Writer) {
	initLogger()
	store(w)
}

// ParseLevel maps a case-insensitive level name to a Level.
// Unknown names yield LevelInfo and ok=false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, nil, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, nil, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, nil, kv...)
}

func Error(msg string, err error, kv ...any) {
	logWithLevel(LevelError, msg, err, kv...)
}

func logWithLevel(level Level, msg string, err error, kv ...any) {
	initLogger()
	l := root.Load()

	var ev *zerolog.Event
	switch level {
	case LevelDebug:
		ev = l.Debug()
	case LevelWarn:
		ev = l.Warn()
	case LevelError:
		ev = l.Error()
	default:
		ev = l.Info()
	}
	if ev == nil {
		// level disabled
		return
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Fields(pairs(kv)).Msg(msg)
}

// pairs drops non-string keys and a trailing odd value. Stringers are
// rendered as text; zerolog would marshal them as JSON objects.
func pairs(kv []any) []any {
	out := make([]any, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		val := kv[i+1]
		switch v := val.(type) {
		case time.Time, error:
		case fmt.Stringer:
			val = safeString(v)
		}
		out = append(out, key, val)
	}
	return out
}

func safeString(s fmt.Stringer) (out string) {
	defer func() {
		if recover() != nil {
			out = "<nil>"
		}
	}()
	return s.String()
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
