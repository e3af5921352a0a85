package logger

import (
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

var (
	baseOnce sync.Once
	base     *logrus.Logger
)

// root builds the process-wide logrus instance once from ENVIRONMENT and LOG_LEVEL.
func root() *logrus.Logger {
	baseOnce.Do(func() {
		base = logrus.New()

		// Local env = pretty console; others = JSON
		env := os.Getenv("ENVIRONMENT")
		if env == "" || env == "local" {
			base.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: time.RFC3339Nano,
				ForceColors:     true,
			})
		} else {
			base.SetFormatter(&logrus.JSONFormatter{
				TimestampFormat: time.RFC3339Nano,
			})
		}
		base.SetOutput(os.Stdout)
		base.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
	})
	return base
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func New() *Logger {
	return &Logger{Entry: logrus.NewEntry(root())}
}

// Discard returns a logger that drops everything. Used by tests and the CLI's quiet mode.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(l)}
}

// Component tags every entry with the emitting package.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

// WithRequest attaches request metadata and returns an entry
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"req_id":     RequestID(r),
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// RequestID returns X-Request-ID or a fresh uuid when the caller sent none.
func RequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
