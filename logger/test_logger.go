package logger

import (
	"fmt"
	"testing"
)

// TestLogger writes log output through the test so that it is only
// shown when a test fails or -v is set
type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) log(level, msg string, args ...any) {
	l.t.Helper()

	out := level + " " + msg
	for i := 0; i+1 < len(args); i += 2 {
		out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}

	l.t.Log(out)
}

func (l *TestLogger) Info(msg string, args ...any) {
	l.t.Helper()
	l.log("INFO", msg, args...)
}

func (l *TestLogger) Debug(msg string, args ...any) {
	l.t.Helper()
	l.log("DEBUG", msg, args...)
}

func (l *TestLogger) Warn(msg string, args ...any) {
	l.t.Helper()
	l.log("WARN", msg, args...)
}

func (l *TestLogger) Error(msg string, args ...any) {
	l.t.Helper()
	l.log("ERROR", msg, args...)
}
