// Package testutil provides shared fixtures and assertions for tests that
// exercise the event log end to end.
package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

// Sine returns n samples of a unit-amplitude tone at freq Hz. It panics if
// n is not positive.
func Sine(n int, freq, sampleRate float64) []float32 {
	gen := signal.NewGenerator(core.WithSampleRate(sampleRate))

	tone, err := gen.Sine(freq, 1, n)
	if err != nil {
		panic(fmt.Sprintf("testutil: sine: %v", err))
	}

	out := make([]float32, len(tone))
	for i, v := range tone {
		out[i] = float32(v)
	}

	return out
}

// SingleEventFile returns the one event file in dir and fails the test if
// there are none or several.
func SingleEventFile(tb testing.TB, dir string) string {
	tb.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "events.out.tfevents.*"))
	if err != nil {
		tb.Fatalf("glob event files: %v", err)
		return ""
	}

	if len(matches) != 1 {
		tb.Fatalf("found %d event files in %s; want 1: %s", len(matches), dir, strings.Join(matches, ", "))
		return ""
	}

	return matches[0]
}
