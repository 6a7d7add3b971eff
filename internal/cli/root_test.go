package cli

import (
	"bytes"
	"testing"
)

func TestExecuteClosesLogOnParseError(t *testing.T) {
	closed := false
	logCleanup = func() error { closed = true; return nil }
	defer func() { logCleanup = nil }()

	rootCmd.SetArgs([]string{"no-such-command"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err == nil {
		t.Fatal("Execute() = nil, want error for unknown command")
	}
	if !closed {
		t.Error("log file was not closed on the error path")
	}
}
