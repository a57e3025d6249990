// Package logger provides leveled logging for evaluation runs.
//
// Implementations are thread-safe. All output is prefixed with [HH:MM:SS]
// timestamps; color is enabled only when writing to a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger writes timestamped leveled messages to a writer. A nil
// writer discards everything.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to w at the given
// minimum level. Valid levels: trace, debug, info, warn, error
// (case-insensitive); empty or invalid levels default to info.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// ValidLogLevel reports whether level names a supported log level.
func ValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

var levelColors = map[string]*color.Color{
	"TRACE": color.New(color.FgHiBlack),
	"DEBUG": color.New(color.FgCyan),
	"INFO":  color.New(color.FgGreen),
	"WARN":  color.New(color.FgYellow),
	"ERROR": color.New(color.FgRed),
}

func (cl *ConsoleLogger) logWithLevel(tag, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(tag)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	timestamp := time.Now().Format("15:04:05")
	levelTag := "[" + tag + "]"
	if cl.colorOutput {
		if c, ok := levelColors[tag]; ok {
			levelTag = c.Sprint(levelTag)
		}
	}
	fmt.Fprintf(cl.writer, "[%s] %s %s\n", timestamp, levelTag, message)
}

// Tracef logs a formatted trace-level message (most verbose).
func (cl *ConsoleLogger) Tracef(format string, args ...interface{}) {
	cl.logWithLevel("TRACE", fmt.Sprintf(format, args...))
}

// Debugf logs a formatted debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.logWithLevel("DEBUG", fmt.Sprintf(format, args...))
}

// Infof logs a formatted info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.logWithLevel("INFO", fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warn-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// Errorf logs a formatted error-level message.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.logWithLevel("ERROR", fmt.Sprintf(format, args...))
}
