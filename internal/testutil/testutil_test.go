package testutil_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-tblogger/internal/audio"
	"github.com/example/go-tblogger/internal/testutil"
)

func TestSine(t *testing.T) {
	s := testutil.Sine(4, 1, 4)

	want := []float32{0, 1, 0, -1}
	for i := range want {
		if math.Abs(float64(s[i]-want[i])) > 1e-6 {
			t.Errorf("Sine[%d] = %f; want %f", i, s[i], want[i])
		}
	}
}

func TestSine_PanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Sine(0, ...) did not panic")
		}
	}()

	testutil.Sine(0, 440, 22050)
}

func TestAssertValidWAV_AcceptsEncodedClip(t *testing.T) {
	data, err := audio.EncodeWAV(testutil.Sine(800, 440, 22050), 22050)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	testutil.AssertValidWAV(t, data, 22050)
	testutil.AssertWAVSamples(t, data, 800)
}

func TestAssertValidWAV_RejectsWrongRate(t *testing.T) {
	data, err := audio.EncodeWAV(make([]float32, 10), 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	failed := false
	fakeT := &fatalTracker{TB: t, onFatal: func() { failed = true }}
	testutil.AssertValidWAV(fakeT, data, 22050)
	if !failed {
		t.Error("expected AssertValidWAV to fail on a sample-rate mismatch")
	}
}

func TestSingleEventFile(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "events.out.tfevents.0000000001.host.1.0")
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if got := testutil.SingleEventFile(t, dir); got != want {
		t.Errorf("SingleEventFile() = %q; want %q", got, want)
	}
}

func TestSingleEventFile_FailsWhenEmpty(t *testing.T) {
	failed := false
	fakeT := &fatalTracker{TB: t, onFatal: func() { failed = true }}
	testutil.SingleEventFile(fakeT, t.TempDir())
	if !failed {
		t.Error("expected SingleEventFile to fail on an empty directory")
	}
}

// fatalTracker is a minimal testing.TB implementation that intercepts
// Fatal calls. Execution continues after the intercepted call, so the
// assertions under test may report more than once.
type fatalTracker struct {
	testing.TB
	onFatal func()
}

func (f *fatalTracker) Helper() {}

func (f *fatalTracker) Fatalf(_ string, _ ...any) { f.onFatal() }

func (f *fatalTracker) Fatal(_ ...any) { f.onFatal() }
