package audio

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrShortInput is returned when a waveform is too short for centred framing.
var ErrShortInput = errors.New("waveform too short for STFT")

// Spectrogram is a bins × frames matrix stored row-major: the value for
// frequency bin b at frame f is Data[b*Frames+f].
type Spectrogram struct {
	Bins   int
	Frames int
	Data   []float64
}

// At returns the value at bin b, frame f.
func (s Spectrogram) At(b, f int) float64 {
	return s.Data[b*s.Frames+f]
}

// MinMax returns the smallest and largest values. Both are 0 for an empty
// spectrogram.
func (s Spectrogram) MinMax() (lo, hi float64) {
	if len(s.Data) == 0 {
		return 0, 0
	}

	lo, hi = s.Data[0], s.Data[0]
	for _, v := range s.Data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	return lo, hi
}

// STFTMag computes magnitude spectrograms with a periodic Hann window and
// centred frames (reflect padding of NFFT/2 on both ends). A single instance
// is reused for every call; it is not safe for concurrent use.
type STFTMag struct {
	nfft   int
	hop    int
	window []float64
	fft    *fourier.FFT
	frame  []float64
	coeffs []complex128
}

// NewSTFTMag builds a transform with nfft-point frames advanced by hop samples.
func NewSTFTMag(nfft, hop int) (*STFTMag, error) {
	if nfft < 2 {
		return nil, fmt.Errorf("stft: invalid nfft %d", nfft)
	}
	if hop < 1 {
		return nil, fmt.Errorf("stft: invalid hop %d", hop)
	}

	w, err := window.Hann(nfft, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("stft: hann window: %w", err)
	}

	return &STFTMag{
		nfft:   nfft,
		hop:    hop,
		window: w,
		fft:    fourier.NewFFT(nfft),
		frame:  make([]float64, nfft),
		coeffs: make([]complex128, nfft/2+1),
	}, nil
}

func (s *STFTMag) NFFT() int { return s.nfft }
func (s *STFTMag) Hop() int  { return s.hop }

// Bins is the number of frequency rows in every output.
func (s *STFTMag) Bins() int { return s.nfft/2 + 1 }

// Frames returns the frame count produced for n input samples.
func (s *STFTMag) Frames(n int) int { return 1 + n/s.hop }

// Compute returns |STFT(x)| with shape Bins() × Frames(len(x)).
func (s *STFTMag) Compute(x []float32) (Spectrogram, error) {
	pad := s.nfft / 2
	if len(x) <= pad {
		return Spectrogram{}, fmt.Errorf("%w: %d samples, need more than %d", ErrShortInput, len(x), pad)
	}

	padded := reflectPad(x, pad)
	bins := s.Bins()
	frames := s.Frames(len(x))
	out := Spectrogram{Bins: bins, Frames: frames, Data: make([]float64, bins*frames)}

	for f := range frames {
		start := f * s.hop
		for i := range s.nfft {
			s.frame[i] = padded[start+i] * s.window[i]
		}

		s.coeffs = s.fft.Coefficients(s.coeffs, s.frame)
		for b, m := range spectrum.Magnitude(s.coeffs) {
			out.Data[b*frames+f] = m
		}
	}

	return out, nil
}

// reflectPad mirrors pad samples at each end without repeating the edge
// sample. Requires len(x) > pad.
func reflectPad(x []float32, pad int) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	for i := range pad {
		out[i] = float64(x[pad-i])
		out[pad+n+i] = float64(x[n-2-i])
	}
	for i, v := range x {
		out[pad+i] = float64(v)
	}

	return out
}
