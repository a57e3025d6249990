package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileLogger writes leveled run logs to timestamped files and maintains a
// latest.log symlink pointing at the most recent run. Thread-safe.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger under logDir, creating the directory
// if needed. Each logger instance owns one run-YYYYMMDD-HHMMSS.log file.
func NewFileLogger(logDir, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlink := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlink); err == nil {
		if err := os.Remove(symlink); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	// Symlinks can be unsupported on the filesystem; the run log itself
	// still works without latest.log.
	_ = os.Symlink(filepath.Base(runFile), symlink)

	return &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string { return fl.runFile }

// Close flushes and closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return nil
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) logWithLevel(tag, message string) {
	if logLevelToInt(strings.ToLower(tag)) < logLevelToInt(fl.logLevel) {
		return
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(fl.runLog, "[%s] [%s] %s\n", timestamp, tag, message)
}

func (fl *FileLogger) Tracef(format string, args ...interface{}) {
	fl.logWithLevel("TRACE", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Debugf(format string, args ...interface{}) {
	fl.logWithLevel("DEBUG", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Infof(format string, args ...interface{}) {
	fl.logWithLevel("INFO", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Warnf(format string, args ...interface{}) {
	fl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Errorf(format string, args ...interface{}) {
	fl.logWithLevel("ERROR", fmt.Sprintf(format, args...))
}
