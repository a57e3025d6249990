package logger

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var lineFormat = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[(TRACE|DEBUG|INFO|WARN|ERROR)\] .+\n$`)

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "info")

	l.Infof("evaluation %s started", "run-1")
	assert.Regexp(t, lineFormat, buf.String())
	assert.Contains(t, buf.String(), "evaluation run-1 started")
}

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "warn")

	l.Tracef("trace message")
	l.Debugf("debug message")
	l.Infof("info message")
	assert.Empty(t, buf.String())

	l.Warnf("warn message")
	l.Errorf("error message")
	assert.Contains(t, buf.String(), "warn message")
	assert.Contains(t, buf.String(), "error message")
}

func TestConsoleLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "shouting")

	l.Debugf("hidden")
	l.Infof("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	l := NewConsoleLogger(nil, "info")
	// Must not panic.
	l.Infof("into the void")
}

func TestConsoleLoggerNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "info")
	assert.False(t, l.colorOutput)

	l.Errorf("plain")
	// No ANSI escapes when the writer is not a terminal.
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestValidLogLevel(t *testing.T) {
	assert.True(t, ValidLogLevel("info"))
	assert.True(t, ValidLogLevel(" WARN "))
	assert.False(t, ValidLogLevel("loud"))
	assert.False(t, ValidLogLevel(""))
}
