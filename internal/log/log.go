// Package log provides structured logging for namebridge.
// Entries carry level, category and key/value fields. File logging is enabled
// via the --debug flag or NAMEBRIDGE_DEBUG env; otherwise entries go to the
// configured writer (stderr for the serve command).
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/namebridge/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a config string to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category groups related log messages.
type Category string

const (
	CatConfig    Category = "config"    // Configuration loading/saving/reload
	CatCommands  Category = "commands"  // Command processor activity
	CatOrch      Category = "orch"      // Engine wiring, scheduler, sweeps
	CatSaga      Category = "saga"      // Registration/bridge/transfer/subdomain sagas
	CatFunding   Category = "funding"   // Funding path analysis
	CatChain     Category = "chain"     // RPC lookups against mainnet/base
	CatBridge    Category = "bridge"    // Across quote and fill status
	CatCache     Category = "cache"     // cache operations
	CatTransport Category = "transport" // NATS and HTTP edges
)

type logger struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var (
	stateMu sync.RWMutex
	current *logger
)

func install(l *logger) {
	stateMu.Lock()
	prev := current
	current = l
	stateMu.Unlock()
	if prev != nil && prev.closer != nil {
		_ = prev.closer.Close()
	}
}

func active() *logger {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return current
}

// Init appends debug-level entries to the file at path. The returned function
// closes the file; entries logged afterwards are dropped.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: operator-chosen debug log path
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	l := &logger{w: f, closer: f, enabled: true, minLevel: LevelDebug, broker: pubsub.NewBroker[string]()}
	install(l)
	return func() {
		l.mu.Lock()
		l.enabled = false
		l.mu.Unlock()
		_ = f.Close()
	}, nil
}

// InitWithWriter installs a logger that writes to w (stderr, a test buffer).
// Entries below minLevel are dropped.
func InitWithWriter(w io.Writer, minLevel Level) {
	install(&logger{w: w, enabled: true, minLevel: minLevel, broker: pubsub.NewBroker[string]()})
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := active(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := active(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) { write(LevelInfo, cat, msg, fields) }

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) { write(LevelWarn, cat, msg, fields) }

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr logs at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	text := "<nil>"
	if err != nil {
		text = err.Error()
	}
	write(LevelError, cat, msg, append(fields, "error", text))
}

func write(level Level, cat Category, msg string, fields []any) {
	l := active()
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	entry := format(time.Now(), level, cat, msg, fields)
	if l.w != nil {
		_, _ = io.WriteString(l.w, entry)
	}
	l.broker.Publish(pubsub.LogEntryEvent, entry)
}

// format renders
//
//	2026-01-17T10:45:00 [ERROR] [saga] reveal failed key=commit-c1-u1-alice error="insufficient funds"
func format(at time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	b.WriteString(at.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i < len(fields); i += 2 {
		b.WriteByte(' ')
		fmt.Fprint(&b, fields[i])
		b.WriteByte('=')
		if i+1 == len(fields) {
			b.WriteString("<missing>")
			continue
		}
		b.WriteString(value(fields[i+1]))
	}
	b.WriteByte('\n')
	return b.String()
}

// value quotes strings that would otherwise break key=value parsing.
func value(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// LogEvent is a pubsub event containing a log entry.
type LogEvent = pubsub.Event[string]

// Subscribe returns a channel of log entries, closed when ctx is cancelled.
// Returns nil when no logger is installed.
func Subscribe(ctx context.Context) <-chan LogEvent {
	l := active()
	if l == nil {
		return nil
	}
	return l.broker.Subscribe(ctx)
}
