package config

import (
	"bytes"
	"strings"
	"testing"
)

func TestExitfReportsCode(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string, ...any)
		code int
	}{
		{name: "failure", fn: Exitf, code: ExitFailure},
		{name: "config", fn: ConfigExitf, code: ExitConfig},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			got := -1
			stderr, exit = &buf, func(code int) { got = code }
			t.Cleanup(func() {
				stderr, exit = defaultStderr, defaultExit
			})

			tc.fn("custody %s is required", "account")

			if got != tc.code {
				t.Fatalf("exit code = %d, want %d", got, tc.code)
			}
			line := buf.String()
			if !strings.HasSuffix(line, ": custody account is required\n") {
				t.Fatalf("stderr = %q", line)
			}
		})
	}
}

var (
	defaultStderr = stderr
	defaultExit   = exit
)
