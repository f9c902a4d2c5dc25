package main

import (
	"fmt"
	"io"

	"github.com/example/go-tblogger/internal/config"
	"github.com/example/go-tblogger/internal/doctor"
	"github.com/example/go-tblogger/internal/render"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration, rank and log directory before training",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			return runDoctor(cfg, cmd.OutOrStdout())
		},
	}
}

func runDoctor(cfg config.Config, out io.Writer) error {
	rank := cfg.ResolveRank()

	dcfg := doctor.Config{
		Checks: []doctor.Check{
			{Name: "config", Probe: func() (string, error) {
				return fmt.Sprintf("name=%s sampling_rate=%d", cfg.Name, cfg.Audio.SamplingRate), cfg.Validate()
			}},
			{Name: "rank", Probe: func() (string, error) {
				if config.IsPrimary(rank) {
					return fmt.Sprintf("%d (primary, logging enabled)", rank), nil
				}
				return fmt.Sprintf("%d (secondary, logging disabled)", rank), nil
			}},
			{Name: "stft", Probe: func() (string, error) {
				return fmt.Sprintf("nfft=%d hop=%d", cfg.Audio.FilterLength, cfg.Audio.HopLength),
					doctor.CheckSTFT(cfg.Audio.FilterLength, cfg.Audio.HopLength)
			}},
			{Name: "render", Probe: probeRender},
		},
	}
	if config.IsPrimary(rank) {
		dcfg.WritableDirs = []string{cfg.Log.TensorboardDir}
	}

	result := doctor.Run(dcfg, out)
	if result.Failed() {
		return fmt.Errorf("doctor found %d issue(s)", len(result.Failures()))
	}

	return nil
}

// probeRender rasterizes a small heat map to confirm the plotting backend
// and its fonts work.
func probeRender() (string, error) {
	b := render.NewBackend()
	img, err := render.Stack(b, "doctor", 4*vg.Inch, 3*vg.Inch, []render.HeatMapSpec{{
		XLabel: "x",
		YLabel: "y",
		Data:   render.Matrix{Rows: 2, Cols: 2, Values: []float64{0, 0.5, 0.5, 1}},
		Min:    0,
		Max:    1,
	}})
	if err != nil {
		return "", err
	}
	if n := b.OpenFigures(); n != 0 {
		return "", fmt.Errorf("%d figure(s) left open", n)
	}

	return fmt.Sprintf("%dx%d rgb", img.Width, img.Height), nil
}
