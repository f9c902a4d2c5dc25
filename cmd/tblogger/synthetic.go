package main

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

// demoBatch is one epoch of synthetic model inputs and outputs.
type demoBatch struct {
	Clean        []float32
	Noisy        []float32
	Recon        []float32
	Error        []float32
	ReconAllStep []float32

	Alignment    []float32
	EncoderSteps int
	DecoderSteps int
}

const (
	chirpStartHz = 110.0
	chirpEndHz   = 3520.0
	noiseLevel   = 0.3

	chirpAmplitude = 0.5
)

// synthesize builds a chirp with a noisy copy and reconstructions whose
// residual noise shrinks as epoch grows. Noise is seeded from epoch.
func synthesize(epoch, length, sampleRate int) (demoBatch, error) {
	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(float64(sampleRate))},
		signal.WithSeed(int64(epoch)),
	)

	sweep, err := gen.LinearSweep(chirpStartHz, chirpEndHz, chirpAmplitude, length)
	if err != nil {
		return demoBatch{}, fmt.Errorf("chirp: %w", err)
	}

	noise, err := gen.WhiteNoise(1, length)
	if err != nil {
		return demoBatch{}, fmt.Errorf("noise: %w", err)
	}

	gen.SetSeed(int64(epoch) + 0x5eed)
	jitter, err := gen.WhiteNoise(1, length)
	if err != nil {
		return demoBatch{}, fmt.Errorf("noise: %w", err)
	}

	clean := toFloat32(sweep)
	b := demoBatch{
		Clean:        clean,
		Noisy:        make([]float32, length),
		Recon:        make([]float32, length),
		Error:        make([]float32, length),
		ReconAllStep: make([]float32, length),
	}

	residual := noiseLevel / float64(epoch+1)
	for i, c := range clean {
		n := noise[i]
		b.Noisy[i] = float32(0.8*float64(c) + noiseLevel*n)
		b.Error[i] = float32(residual * n)
		b.Recon[i] = c + b.Error[i]
		b.ReconAllStep[i] = c + float32(0.5*residual*jitter[i])
	}

	b.EncoderSteps = max(length/2048, 8)
	b.DecoderSteps = max(length/256, 16)
	b.Alignment = diagonalAlignment(b.EncoderSteps, b.DecoderSteps, 1+float64(epoch))

	return b, nil
}

func toFloat32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}

	return out
}

// diagonalAlignment returns an encoder × decoder attention matrix whose
// columns are Gaussian bumps along the diagonal, normalized to sum to 1.
// A larger sharpness narrows the band.
func diagonalAlignment(enc, dec int, sharpness float64) []float32 {
	out := make([]float32, enc*dec)
	width := float64(enc) / (4 * sharpness)

	for d := range dec {
		center := float64(d) * float64(enc-1) / float64(max(dec-1, 1))

		var sum float64
		col := make([]float64, enc)
		for e := range enc {
			z := (float64(e) - center) / width
			col[e] = math.Exp(-0.5 * z * z)
			sum += col[e]
		}

		for e := range enc {
			out[e*dec+d] = float32(col[e] / sum)
		}
	}

	return out
}
