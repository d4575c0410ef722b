// Package log configures apex/log for the outline-diff commands
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvVar selects the log level: trace, debug, info, warn or error
const EnvVar = "OUTLINE_DIFF_LOG"

const tracePrefix = "TRACE: "

var traceEnabled bool

// Init sets up apex/log with a compact handler writing to w and the level
// taken from OUTLINE_DIFF_LOG. An empty or unknown value means error.
func Init(w io.Writer) {
	level := strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar)))
	traceEnabled = level == "trace"

	var apexLevel log.Level
	switch level {
	case "trace", "debug":
		apexLevel = log.DebugLevel
	case "info":
		apexLevel = log.InfoLevel
	case "warn":
		apexLevel = log.WarnLevel
	default:
		apexLevel = log.ErrorLevel
	}
	log.SetHandler(NewHandler(w))
	log.SetLevel(apexLevel)
}

// Handler writes "<timestamp> <L> <message> key=value..." lines
type Handler struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewHandler creates a handler writing to w
func NewHandler(w io.Writer) *Handler {
	return &Handler{out: w, now: time.Now}
}

// HandleLog implements log.Handler
func (h *Handler) HandleLog(e *log.Entry) error {
	message := e.Message
	level := "?"
	if strings.HasPrefix(message, tracePrefix) {
		level = "T"
		message = message[len(tracePrefix):]
	} else {
		switch e.Level {
		case log.DebugLevel:
			level = "D"
		case log.InfoLevel:
			level = "I"
		case log.WarnLevel:
			level = "W"
		case log.ErrorLevel:
			level = "E"
		case log.FatalLevel:
			level = "F"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", h.now().Format("2006-01-02 15:04:05"), level, message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// Tracef logs below debug level
func Tracef(format string, args ...any) {
	if traceEnabled {
		log.Debug(tracePrefix + fmt.Sprintf(format, args...))
	}
}

// Debugf logs at debug level
func Debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

// Infof logs at info level
func Infof(format string, args ...any) {
	log.Infof(format, args...)
}

// Warnf logs at warn level
func Warnf(format string, args ...any) {
	log.Warnf(format, args...)
}

// WithError returns an entry carrying err
func WithError(err error) *log.Entry {
	return log.WithError(err)
}
