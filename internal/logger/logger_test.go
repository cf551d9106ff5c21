package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":  zap.DebugLevel,
		" WARN ": zap.WarnLevel,
		"error":  zap.ErrorLevel,
		"info":   zap.InfoLevel,
		"":       zap.InfoLevel,
		"trace":  zap.InfoLevel,
	}

	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q): want %s got %s", in, want, got)
		}
	}
}

func TestInitLogger_ReplacesGlobals(t *testing.T) {
	lgr := InitLogger("warn")
	defer lgr.Sync()

	if zap.L() != lgr {
		t.Fatalf("global logger was not replaced")
	}

	if zap.L().Core().Enabled(zap.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
}
