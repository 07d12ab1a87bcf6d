package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Log(out)
		t.Fail()
	}
	if !strings.Contains(out, "WARN: warn 3") || !strings.Contains(out, "ERROR: error 4") {
		t.Log(out)
		t.Fail()
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"none":    LevelNone,
		"bogus":   LevelInfo,
	}
	for in, expected := range tests {
		if out := LevelFromString(in); out != expected {
			t.Log("in      ", in)
			t.Log("out     ", out)
			t.Log("expected", expected)
			t.Fail()
		}
	}
}
