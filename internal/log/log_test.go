package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseLevel(t *testing.T) {
	c := qt.New(t)
	c.Assert(ParseLevel("debug"), qt.Equals, LevelDebug)
	c.Assert(ParseLevel(" Warning "), qt.Equals, LevelWarn)
	c.Assert(ParseLevel("ERROR"), qt.Equals, LevelError)
	c.Assert(ParseLevel("bogus"), qt.Equals, LevelInfo)
}

func TestLevelFilterAndFormat(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	c.Cleanup(func() {
		SetLevel(LevelInfo)
	})

	Info("hidden")
	Warn("frame skipped", "busy", true, "dangling")
	Error("bus failed", errors.New("boom"), "addr", 0x30212c)

	out := buf.String()
	c.Assert(strings.Contains(out, "hidden"), qt.IsFalse)
	c.Assert(out, qt.Contains, "[WARN] frame skipped busy=true\n")
	c.Assert(out, qt.Contains, "[ERROR] bus failed err=boom addr=3154220")
}
