package bench_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/go-tblogger/internal/bench"
)

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

func TestStats_MinMaxMean(t *testing.T) {
	durations := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}
	s := bench.ComputeStats(durations)

	if s.Min != 100*time.Millisecond {
		t.Errorf("want min=100ms, got %v", s.Min)
	}

	if s.Max != 300*time.Millisecond {
		t.Errorf("want max=300ms, got %v", s.Max)
	}

	if s.Mean != 200*time.Millisecond {
		t.Errorf("want mean=200ms, got %v", s.Mean)
	}
}

func TestStats_SingleEpoch(t *testing.T) {
	s := bench.ComputeStats([]time.Duration{150 * time.Millisecond})
	if s.Min != s.Max || s.Min != s.Mean {
		t.Errorf("single epoch: min/max/mean should all be equal, got min=%v max=%v mean=%v", s.Min, s.Max, s.Mean)
	}
}

func TestStats_Empty(t *testing.T) {
	if s := bench.ComputeStats(nil); s != (bench.Stats{}) {
		t.Errorf("empty: got %+v, want zero Stats", s)
	}
}

// ---------------------------------------------------------------------------
// RTF calculation
// ---------------------------------------------------------------------------

func TestRTF_Calculation(t *testing.T) {
	// 1 second of audio logged in 500ms → RTF = 0.5
	rtf := bench.CalcRTF(500*time.Millisecond, time.Second)
	if rtf < 0.499 || rtf > 0.501 {
		t.Errorf("want RTF≈0.5, got %.4f", rtf)
	}
}

func TestRTF_ZeroAudio(t *testing.T) {
	if rtf := bench.CalcRTF(time.Second, 0); rtf != 0 {
		t.Errorf("want RTF=0 for zero audio, got %f", rtf)
	}
}

func TestAudioDuration(t *testing.T) {
	tests := []struct {
		n, rate int
		want    time.Duration
	}{
		{22050, 22050, time.Second},
		{11025, 22050, 500 * time.Millisecond},
		{100, 0, 0},
	}

	for _, tt := range tests {
		if got := bench.AudioDuration(tt.n, tt.rate); got != tt.want {
			t.Errorf("AudioDuration(%d, %d) = %v; want %v", tt.n, tt.rate, got, tt.want)
		}
	}
}

func TestNewEpochResult(t *testing.T) {
	r := bench.NewEpochResult(0, 250*time.Millisecond, time.Second)
	if !r.Cold {
		t.Error("epoch 0 should be marked cold")
	}
	if r.RTF < 0.249 || r.RTF > 0.251 {
		t.Errorf("RTF = %f; want 0.25", r.RTF)
	}

	if bench.NewEpochResult(1, time.Second, time.Second).Cold {
		t.Error("epoch 1 should not be cold")
	}
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

func sampleResults() []bench.EpochResult {
	return []bench.EpochResult{
		bench.NewEpochResult(0, 400*time.Millisecond, time.Second),
		bench.NewEpochResult(1, 200*time.Millisecond, time.Second),
	}
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := bench.Write(bench.FormatTable, sampleResults(), &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Epoch", "RTF", "yes", "(min)", "(mean)", "(max)", "300.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := bench.Write(bench.FormatJSON, sampleResults(), &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var report struct {
		Epochs []struct {
			Epoch      int     `json:"epoch"`
			Cold       bool    `json:"cold"`
			DurationMS float64 `json:"duration_ms"`
		} `json:"epochs"`
		Stats struct {
			MeanMS float64 `json:"mean_ms"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if len(report.Epochs) != 2 || !report.Epochs[0].Cold || report.Epochs[1].DurationMS != 200 {
		t.Errorf("unexpected epochs: %+v", report.Epochs)
	}
	if report.Stats.MeanMS != 300 {
		t.Errorf("mean_ms = %f; want 300", report.Stats.MeanMS)
	}
}

func TestWrite_NoneAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	if err := bench.Write(bench.FormatNone, sampleResults(), &buf); err != nil || buf.Len() != 0 {
		t.Errorf("FormatNone wrote %q, err %v", buf.String(), err)
	}

	if err := bench.Write("xml", sampleResults(), &buf); err == nil {
		t.Error("Write(xml) = nil; want error")
	}

	if bench.ValidFormat("xml") || !bench.ValidFormat(bench.FormatJSON) {
		t.Error("ValidFormat mismatch")
	}
}
