// Package bench measures how much wall time experiment logging adds to a
// training epoch.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Epoch result and stats
// ---------------------------------------------------------------------------

// EpochResult holds the logging cost of one epoch.
type EpochResult struct {
	Epoch         int
	Cold          bool // true for the first epoch (font and palette setup)
	Duration      time.Duration
	AudioDuration time.Duration
	RTF           float64
}

// NewEpochResult fills in RTF from the measured duration and the length of
// the audio clips logged in that epoch.
func NewEpochResult(epoch int, took, audioDur time.Duration) EpochResult {
	return EpochResult{
		Epoch:         epoch,
		Cold:          epoch == 0,
		Duration:      took,
		AudioDuration: audioDur,
		RTF:           CalcRTF(took, audioDur),
	}
}

// Stats holds aggregate timing statistics across all epochs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// An empty slice yields zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts the per-epoch durations from results.
func Durations(results []EpochResult) []time.Duration {
	out := make([]time.Duration, len(results))
	for i, r := range results {
		out[i] = r.Duration
	}
	return out
}

// ---------------------------------------------------------------------------
// RTF helpers
// ---------------------------------------------------------------------------

// CalcRTF returns logging_duration / audio_duration.
// Returns 0 if audioDur is zero to avoid division by zero.
func CalcRTF(took, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(took) / float64(audioDur)
}

// AudioDuration is the playback length of n samples at sampleRate.
func AudioDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(sampleRate))
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// Formats accepted by Write.
const (
	FormatNone  = "none"
	FormatTable = "table"
	FormatJSON  = "json"
)

// ValidFormat reports whether Write understands format.
func ValidFormat(format string) bool {
	switch format {
	case FormatNone, FormatTable, FormatJSON:
		return true
	default:
		return false
	}
}

// Write renders results in the given format. FormatNone writes nothing.
func Write(format string, results []EpochResult, w io.Writer) error {
	stats := ComputeStats(Durations(results))

	switch format {
	case FormatNone:
		return nil
	case FormatTable:
		WriteTable(results, stats, w)
		return nil
	case FormatJSON:
		return WriteJSON(results, stats, w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteTable writes a human-readable ASCII table of epoch results to w.
func WriteTable(results []EpochResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %12s  %8s\n", "Epoch", "Cold", "MS", "Audio(ms)", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 48))

	for _, r := range results {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %12.1f  %8.3f\n",
			r.Epoch,
			cold,
			float64(r.Duration.Milliseconds()),
			float64(r.AudioDuration.Milliseconds()),
			r.RTF,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 48))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %12s  %8s  (min)\n", "", "", float64(stats.Min.Milliseconds()), "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %12s  %8s  (mean)\n", "", "", float64(stats.Mean.Milliseconds()), "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %12s  %8s  (max)\n", "", "", float64(stats.Max.Milliseconds()), "", "")

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by WriteJSON.
type jsonReport struct {
	Epochs []jsonEpoch `json:"epochs"`
	Stats  jsonStats   `json:"stats"`
}

type jsonEpoch struct {
	Epoch      int     `json:"epoch"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	AudioMS    float64 `json:"audio_ms"`
	RTF        float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// WriteJSON writes a JSON report of epoch results to w.
func WriteJSON(results []EpochResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Epochs: make([]jsonEpoch, len(results)),
		Stats: jsonStats{
			MinMS:  float64(stats.Min.Milliseconds()),
			MeanMS: float64(stats.Mean.Milliseconds()),
			MaxMS:  float64(stats.Max.Milliseconds()),
		},
	}
	for i, r := range results {
		jr.Epochs[i] = jsonEpoch{
			Epoch:      r.Epoch,
			Cold:       r.Cold,
			DurationMS: float64(r.Duration.Milliseconds()),
			AudioMS:    float64(r.AudioDuration.Milliseconds()),
			RTF:        r.RTF,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
