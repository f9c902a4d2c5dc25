package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/example/go-tblogger/internal/bench"
	"github.com/example/go-tblogger/internal/config"
	"github.com/example/go-tblogger/internal/tblogger"
	"github.com/example/go-tblogger/internal/tensor"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var opts demoOptions

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Drive the logger with synthetic waveforms, alignments and learning rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if opts.Epochs < 1 {
				return fmt.Errorf("--epochs must be at least 1")
			}
			if opts.Seconds <= 0 {
				return fmt.Errorf("--seconds must be positive")
			}
			if !bench.ValidFormat(opts.Report) {
				return fmt.Errorf("--report must be 'none', 'table' or 'json'")
			}

			opts.Progress = cmd.ErrOrStderr()

			return runDemo(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.Epochs, "epochs", 3, "Number of epochs to log")
	cmd.Flags().Float64Var(&opts.Seconds, "seconds", 1, "Length of each synthetic waveform in seconds")
	cmd.Flags().IntVar(&opts.StepsPerEpoch, "steps-per-epoch", 100, "Optimizer steps between learning-rate points")
	cmd.Flags().IntVar(&opts.DiffSteps, "diff-steps", 8, "Number of diffusion steps to cycle through in titles")
	cmd.Flags().Float64Var(&opts.LearningRate, "lr", 2e-4, "Initial learning rate")
	cmd.Flags().Float64Var(&opts.Decay, "lr-decay", 0.9, "Learning-rate decay per epoch")
	cmd.Flags().BoolVar(&opts.Quiet, "quiet", false, "Hide the progress bar")
	cmd.Flags().StringVar(&opts.Report, "report", bench.FormatTable, "Per-epoch logging cost report: none|table|json")

	return cmd
}

// clipsPerEpoch is the number of waveforms LogAudio writes.
const clipsPerEpoch = 4

type demoOptions struct {
	Epochs        int
	Seconds       float64
	StepsPerEpoch int
	DiffSteps     int
	LearningRate  float64
	Decay         float64
	Quiet         bool
	Report        string
	Progress      io.Writer
}

func runDemo(ctx context.Context, cfg config.Config, opts demoOptions, out io.Writer) error {
	logger, err := tblogger.New(cfg, tblogger.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	if !logger.Primary() {
		_, _ = fmt.Fprintln(out, "secondary process: nothing to log")
		return nil
	}

	progress := opts.Progress
	if progress == nil || opts.Quiet {
		progress = io.Discard
	}

	bar := progressbar.NewOptions(opts.Epochs,
		progressbar.OptionSetDescription("logging epochs"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!opts.Quiet),
	)

	length := int(opts.Seconds * float64(cfg.Audio.SamplingRate))
	diffSteps := max(opts.DiffSteps, 1)
	results := make([]bench.EpochResult, 0, opts.Epochs)

	for epoch := range opts.Epochs {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := synthesize(epoch, length, cfg.Audio.SamplingRate)
		if err != nil {
			return fmt.Errorf("epoch %d: synthesize: %w", epoch, err)
		}
		step := int64(epoch * opts.StepsPerEpoch)

		start := time.Now()
		if err := logEpoch(logger, batch, int64(epoch), step, epoch%diffSteps, decayedRate(opts, epoch)); err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		results = append(results, bench.NewEpochResult(epoch, time.Since(start),
			bench.AudioDuration(clipsPerEpoch*length, cfg.Audio.SamplingRate)))

		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if err := logger.Close(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\nlogged %d epochs to %s\n", opts.Epochs, logger.LogDir())

	report := opts.Report
	if report == "" {
		report = bench.FormatNone
	}

	return bench.Write(report, results, out)
}

func logEpoch(logger *tblogger.Logger, b demoBatch, epoch, step int64, diffStep int, lr float64) error {
	y := tensor.FromSlice(b.Clean)
	yNoisy := tensor.FromSlice(b.Noisy)
	yRecon := tensor.FromSlice(b.Recon)
	eps := tensor.FromSlice(b.Error)
	allStep := tensor.FromSlice(b.ReconAllStep)

	alignment, err := tensor.New(b.Alignment, []int64{int64(b.EncoderSteps), int64(b.DecoderSteps)})
	if err != nil {
		return err
	}

	if err := logger.LogLearningRate(lr, step); err != nil {
		return err
	}
	if err := logger.LogSpectrogram(y, yNoisy, yRecon, eps, allStep, diffStep, epoch); err != nil {
		return err
	}
	if err := logger.LogAlignment(alignment, epoch); err != nil {
		return err
	}

	return logger.LogAudio(y, yNoisy, yRecon, allStep, epoch)
}

func decayedRate(opts demoOptions, epoch int) float64 {
	lr := opts.LearningRate
	for range epoch {
		lr *= opts.Decay
	}

	return lr
}
