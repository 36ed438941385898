package overlay

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the minimal structured logging interface used throughout the
// overlay package. *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
}

var logSink Logger = newDefaultLogger()

func newDefaultLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "addoverlay",
	})
}

// SetLogger allows callers/tests to inject a custom logger (or a discard
// logger) instead of the default stderr logger. Passing nil resets to the
// default.
func SetLogger(l Logger) {
	if l == nil {
		logSink = newDefaultLogger()
		return
	}
	logSink = l
}
