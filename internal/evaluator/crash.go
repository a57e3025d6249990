package evaluator

import (
	"regexp"
	"strconv"
	"strings"
	"syscall"
)

// crashIndicators are substrings whose presence in program or debugger
// output marks abnormal termination. Matched case-insensitively.
var crashIndicators = []string{
	"segmentation fault",
	"segfault",
	"sigsegv",
	"sigabrt",
	"sigbus",
	"sigfpe",
	"sigill",
	"core dumped",
	"aborted",
	"double free",
	"stack smashing detected",
	"program received signal",
	"program terminated with signal",
	"buffer overflow detected",
}

// CrashIndicator scans output for crash evidence and returns the first
// matching indicator.
func CrashIndicator(output string) (string, bool) {
	lower := strings.ToLower(output)
	for _, indicator := range crashIndicators {
		if strings.Contains(lower, indicator) {
			return indicator, true
		}
	}
	return "", false
}

var (
	// Program received signal SIGSEGV, Segmentation fault.
	gdbSignalPattern = regexp.MustCompile(`Program (?:received signal|terminated with signal) (SIG[A-Z0-9]+)`)

	// [Inferior 1 (process 4242) exited with code 01]
	// gdb prints the code in octal.
	gdbExitCodePattern = regexp.MustCompile(`exited with code (\d+)`)
)

// ParseTermination extracts exit code and fatal signal from a debugger
// transcript. An "exited normally" line yields (0, ""). When the transcript
// shows neither, ok is false and the caller falls back to indicator
// scanning.
func ParseTermination(transcript string) (exitCode int, signal string, ok bool) {
	if match := gdbSignalPattern.FindStringSubmatch(transcript); match != nil {
		return -1, match[1], true
	}
	if match := gdbExitCodePattern.FindStringSubmatch(transcript); match != nil {
		code, err := strconv.ParseInt(match[1], 8, 32)
		if err == nil {
			return int(code), "", true
		}
	}
	if strings.Contains(transcript, "exited normally") {
		return 0, "", true
	}
	return 0, "", false
}

// signalName renders a wait-status signal in the conventional SIGXXX form.
func signalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGSEGV:
		return "SIGSEGV"
	case syscall.SIGABRT:
		return "SIGABRT"
	case syscall.SIGBUS:
		return "SIGBUS"
	case syscall.SIGFPE:
		return "SIGFPE"
	case syscall.SIGILL:
		return "SIGILL"
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGINT:
		return "SIGINT"
	default:
		return strings.ToUpper(sig.String())
	}
}
