package audio

import "math"

// amin is the magnitude floor applied before taking logarithms.
const amin = 1e-5

// AmplitudeToDB converts a magnitude spectrogram to decibels relative to its
// own maximum, so the loudest cell is 0 dB. When topDB > 0 every value is
// floored at (max - topDB).
func AmplitudeToDB(s Spectrogram, topDB float64) Spectrogram {
	out := Spectrogram{Bins: s.Bins, Frames: s.Frames, Data: make([]float64, len(s.Data))}
	if len(s.Data) == 0 {
		return out
	}

	ref := 0.0
	for _, v := range s.Data {
		ref = math.Max(ref, math.Abs(v))
	}

	refDB := 20 * math.Log10(math.Max(amin, ref))
	peak := math.Inf(-1)
	for i, v := range s.Data {
		db := 20*math.Log10(math.Max(amin, math.Abs(v))) - refDB
		out.Data[i] = db
		peak = math.Max(peak, db)
	}

	if topDB > 0 {
		floor := peak - topDB
		for i, v := range out.Data {
			out.Data[i] = math.Max(v, floor)
		}
	}

	return out
}
