package session

import (
	"regexp"
	"strconv"
	"strings"
)

// hasPrompt reports whether the accumulated output ends at a prompt marker.
// gdb prints its prompt without a trailing newline, so the check ignores
// trailing whitespace and matches on the marker's visible text.
func hasPrompt(buf, prompt string) bool {
	marker := strings.TrimRight(prompt, " \t")
	trimmed := strings.TrimRight(buf, " \t\r\n")
	return strings.HasSuffix(trimmed, marker)
}

// cleanOutput strips prompt markers and the echoed command from raw session
// output, leaving just the debugger's response.
func cleanOutput(raw, command, prompt string) string {
	marker := strings.TrimRight(prompt, " \t")
	out := strings.ReplaceAll(raw, prompt, "")
	out = strings.ReplaceAll(out, marker, "")
	out = strings.TrimSpace(out)
	if strings.HasPrefix(out, command) {
		out = strings.TrimLeft(out[len(command):], "\n\r ")
	}
	return out
}

// Breakpoint is one entry parsed from gdb's "info breakpoints" output.
type Breakpoint struct {
	File string
	Line int
}

// Example line:
//
//	1   breakpoint     keep y   0x00005555555551d6 in main at main.cpp:5
var breakpointPattern = regexp.MustCompile(`^\s*\d+\s+breakpoint\s+keep\s+y\s+\S+\s+in\s+.+\s+at\s+(.+):(\d+)`)

// ParseBreakpoints extracts active breakpoints from "info breakpoints"
// output so callers can track breakpoint state across session restarts.
func ParseBreakpoints(output string) []Breakpoint {
	var bps []Breakpoint
	for _, line := range strings.Split(output, "\n") {
		match := breakpointPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		bps = append(bps, Breakpoint{File: match[1], Line: n})
	}
	return bps
}

// Example line:
//
//	#0  main () at main.cpp:5
var framePattern = regexp.MustCompile(`at\s+(\S+):(\d+)`)

// CurrentFrame extracts the source location from gdb's "frame" or "where"
// output. Returns ok=false when no frame location is present (e.g. the
// program is not running).
func CurrentFrame(output string) (file string, line int, ok bool) {
	for _, l := range strings.Split(output, "\n") {
		match := framePattern.FindStringSubmatch(l)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		return match[1], n, true
	}
	return "", 0, false
}
