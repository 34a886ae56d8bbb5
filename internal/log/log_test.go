package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelsFilterOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	SetLevel(LevelInfo)
	Debug("hidden", "k", 1)
	Info("expanded templates", "count", 3)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug line leaked at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "count=3") {
		t.Fatalf("expected key/value pair, got %q", buf.String())
	}

	buf.Reset()
	SetLevel(LevelError)
	Info("quiet")
	Error("load failed", errors.New("boom"), "path", "x.yaml")
	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "err=boom") || !strings.Contains(out, "path=x.yaml") {
		t.Fatalf("unexpected error-level output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"DEBUG": LevelDebug, " error ": LevelError, "info": LevelInfo, "verbose": LevelInfo, "": LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
