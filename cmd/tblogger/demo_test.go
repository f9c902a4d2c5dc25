package main

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-tblogger/internal/audio"
	"github.com/example/go-tblogger/internal/bench"
	"github.com/example/go-tblogger/internal/config"
)

func demoConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Name = "demo"
	cfg.Log.TensorboardDir = filepath.Join(t.TempDir(), "tb")
	cfg.Audio.SamplingRate = 8000
	cfg.Dist.Rank = 0

	return cfg
}

func TestRunDemo_ThenInspect(t *testing.T) {
	cfg := demoConfig(t)

	var out bytes.Buffer
	err := runDemo(context.Background(), cfg, demoOptions{
		Epochs:        2,
		Seconds:       0.5,
		StepsPerEpoch: 10,
		DiffSteps:     4,
		LearningRate:  1e-3,
		Decay:         0.5,
		Quiet:         true,
		Report:        bench.FormatTable,
	}, &out)
	if err != nil {
		t.Fatalf("runDemo: %v", err)
	}

	if !strings.Contains(out.String(), "(mean)") {
		t.Errorf("demo output has no cost report:\n%s", out.String())
	}

	runDir := filepath.Join(cfg.Log.TensorboardDir, "demo", "version_0")
	if !strings.Contains(out.String(), runDir) {
		t.Errorf("demo output %q does not mention %s", out.String(), runDir)
	}

	var listing bytes.Buffer
	if err := runInspect(runDir, &listing); err != nil {
		t.Fatalf("runInspect: %v", err)
	}

	text := listing.String()
	for _, want := range []string{"learning_rate", "y_recon_allstep", "/result", "/alignment", "audio", "image", "scalar", "png", "wav"} {
		if !strings.Contains(text, want) {
			t.Errorf("inspect output missing %q:\n%s", want, text)
		}
	}

	if got := strings.Count(text, "learning_rate"); got != 2 {
		t.Errorf("learning_rate lines = %d; want 2", got)
	}
}

func TestRunDemo_SecondaryRankWritesNothing(t *testing.T) {
	cfg := demoConfig(t)
	cfg.Dist.Rank = 1

	var out bytes.Buffer
	err := runDemo(context.Background(), cfg, demoOptions{Epochs: 1, Seconds: 0.5, Quiet: true}, &out)
	if err != nil {
		t.Fatalf("runDemo: %v", err)
	}

	if err := runInspect(cfg.Log.TensorboardDir, &bytes.Buffer{}); err == nil {
		t.Error("runInspect found event files written by a secondary rank")
	}
}

func TestRunDemo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runDemo(ctx, demoConfig(t), demoOptions{Epochs: 1, Seconds: 0.5, Quiet: true}, &bytes.Buffer{})
	if err == nil {
		t.Error("runDemo with cancelled context = nil; want error")
	}
}

func TestDecayedRate(t *testing.T) {
	opts := demoOptions{LearningRate: 1, Decay: 0.5}

	tests := []struct {
		epoch int
		want  float64
	}{
		{0, 1},
		{1, 0.5},
		{3, 0.125},
	}

	for _, tt := range tests {
		if got := decayedRate(opts, tt.epoch); got != tt.want {
			t.Errorf("decayedRate(%d) = %v; want %v", tt.epoch, got, tt.want)
		}
	}
}

func TestSynthesize_Shapes(t *testing.T) {
	b, err := synthesize(1, 4000, 8000)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	for name, s := range map[string][]float32{
		"clean": b.Clean, "noisy": b.Noisy, "recon": b.Recon, "error": b.Error, "all": b.ReconAllStep,
	} {
		if len(s) != 4000 {
			t.Errorf("%s length = %d; want 4000", name, len(s))
		}
	}

	if len(b.Alignment) != b.EncoderSteps*b.DecoderSteps {
		t.Errorf("alignment has %d values; want %d", len(b.Alignment), b.EncoderSteps*b.DecoderSteps)
	}
}

func TestDiagonalAlignment_ColumnsSumToOne(t *testing.T) {
	const enc, dec = 8, 16
	a := diagonalAlignment(enc, dec, 2)

	for d := range dec {
		var sum float64
		for e := range enc {
			v := a[e*dec+d]
			if v < 0 || v > 1 {
				t.Fatalf("alignment[%d,%d] = %f outside [0, 1]", e, d, v)
			}
			sum += float64(v)
		}

		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("column %d sums to %f; want 1", d, sum)
		}
	}
}

func TestSynthesize_Chirp(t *testing.T) {
	b, err := synthesize(0, 1000, 8000)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	if b.Clean[0] != 0 {
		t.Errorf("chirp[0] = %f; want 0", b.Clean[0])
	}

	for i, v := range b.Clean {
		if math.Abs(float64(v)) > chirpAmplitude+1e-6 {
			t.Fatalf("chirp[%d] = %f exceeds %v", i, v, chirpAmplitude)
		}
	}
}

func TestSynthesize_NoiseSeededByEpoch(t *testing.T) {
	a, err := synthesize(3, 2000, 8000)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	again, _ := synthesize(3, 2000, 8000)
	other, _ := synthesize(4, 2000, 8000)

	same, differs := true, false
	for i := range a.Noisy {
		if a.Noisy[i] != again.Noisy[i] {
			same = false
		}
		if a.Noisy[i] != other.Noisy[i] {
			differs = true
		}
		if bound := float32(0.8*chirpAmplitude + noiseLevel + 1e-6); a.Noisy[i] > bound || a.Noisy[i] < -bound {
			t.Fatalf("noisy[%d] = %f outside ±%f", i, a.Noisy[i], bound)
		}
	}

	if !same {
		t.Error("same epoch produced different noise")
	}
	if !differs {
		t.Error("different epochs produced identical noise")
	}
}

func TestSynthesize_RejectsEmptyClip(t *testing.T) {
	if _, err := synthesize(0, 0, 8000); err == nil {
		t.Error("expected error for zero-length clip")
	}
}

func TestPayloadType(t *testing.T) {
	wav, err := audio.EncodeWAV(make([]float32, 16), 8000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	if got := payloadType(wav); got != "wav" {
		t.Errorf("payloadType(wav) = %q; want wav", got)
	}

	if got := payloadType([]byte("nope")); got != "unknown" {
		t.Errorf("payloadType(garbage) = %q; want unknown", got)
	}
}
