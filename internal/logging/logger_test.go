package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for raw, want := range cases {
		Init(raw, false)
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("level %q: expected %s, got %s", raw, want, got)
		}
	}
}
