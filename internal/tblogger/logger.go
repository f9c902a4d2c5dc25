// Package tblogger writes training-time visualizations of a speech diffusion
// model to a TensorBoard event log: stacked spectrogram grids, attention
// alignments, audio clips and the learning rate.
//
// Only the primary process (rank 0) writes anything. On other ranks New
// touches no files and every Log* method returns nil immediately.
package tblogger

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/example/go-tblogger/internal/audio"
	"github.com/example/go-tblogger/internal/config"
	"github.com/example/go-tblogger/internal/render"
	"github.com/example/go-tblogger/internal/tensor"
	"github.com/example/go-tblogger/internal/tfevents"
)

// Fixed summary tags and labels.
const (
	LearningRateTag = "learning_rate"

	topDB = 80.0
)

var (
	spectrogramNames = [...]string{"y", "y_noisy", "y_recon", "errer_recon", "y_recon_allstep"}
	audioNames       = [...]string{"y", "y_noisy", "y_recon", "y_recon_allstep"}

	spectrogramSize = [2]vg.Length{9 * vg.Inch, 15 * vg.Inch}
	alignmentSize   = [2]vg.Length{9 * vg.Inch, 3 * vg.Inch}
)

// Experiment is the tracking-client capability set the logger delegates to.
// *tfevents.Writer implements it.
type Experiment interface {
	AddImage(tag string, pix []uint8, dims []int, step int64, format tfevents.DataFormat) error
	AddAudio(tag string, samples []float32, step int64, sampleRate int) error
	AddScalar(tag string, value float64, step int64) error
	Flush() error
}

// Logger is the experiment logger of one training run.
type Logger struct {
	cfg     config.Config
	rank    int
	root    string
	logDir  string
	version int

	exp     Experiment
	closer  io.Closer
	closed  bool
	stft    *audio.STFTMag
	backend *render.Backend
	log     *slog.Logger

	resultTag    string
	alignmentTag string
}

type options struct {
	exp     Experiment
	backend *render.Backend
	rank    *int
	log     *slog.Logger
}

// Option configures a Logger.
type Option func(*options)

// WithExperiment replaces the event-file writer with exp. The logger does
// not close an injected experiment.
func WithExperiment(exp Experiment) Option {
	return func(o *options) { o.exp = exp }
}

// WithBackend sets the plotting backend used for figures.
func WithBackend(b *render.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithRank overrides the rank resolved from the config and environment.
func WithRank(rank int) Option {
	return func(o *options) { o.rank = &rank }
}

// WithLogger sets the slog.Logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates the logger for cfg. On the primary process it allocates the
// next version directory under <tensorboard_dir>/<name>, opens the event
// writer there and saves cfg as hparams.yaml.
func New(cfg config.Config, opts ...Option) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		o.backend = render.NewBackend()
	}
	if o.log == nil {
		o.log = slog.Default()
	}

	rank := cfg.ResolveRank()
	if o.rank != nil {
		rank = *o.rank
	}

	stft, err := audio.NewSTFTMag(cfg.Audio.FilterLength, cfg.Audio.HopLength)
	if err != nil {
		return nil, err
	}

	tbDir := filepath.ToSlash(cfg.Log.TensorboardDir)
	l := &Logger{
		cfg:          cfg,
		rank:         rank,
		root:         filepath.Join(cfg.Log.TensorboardDir, cfg.Name),
		version:      -1,
		stft:         stft,
		backend:      o.backend,
		log:          o.log.With(slog.Int("rank", rank)),
		resultTag:    path.Join(tbDir, "result"),
		alignmentTag: path.Join(tbDir, "alignment"),
	}

	if !config.IsPrimary(rank) {
		l.log.Debug("secondary process, logging disabled")
		return l, nil
	}

	version, err := nextVersion(l.root)
	if err != nil {
		return nil, err
	}
	l.version = version
	l.logDir = filepath.Join(l.root, versionDir(version))

	if o.exp != nil {
		l.exp = o.exp
	} else {
		w, err := tfevents.NewWriter(l.logDir, tfevents.WithLogger(o.log))
		if err != nil {
			return nil, err
		}
		l.exp = w
		l.closer = w
	}

	if err := SaveHparams(l.logDir, cfg); err != nil {
		l.closeOwned()
		return nil, err
	}

	l.log.Info("experiment logger ready",
		slog.String("log_dir", l.logDir),
		slog.Int("version", version),
	)

	return l, nil
}

// Primary reports whether this logger writes anything.
func (l *Logger) Primary() bool {
	return config.IsPrimary(l.rank)
}

// LogDir is the run directory, empty on secondary processes.
func (l *Logger) LogDir() string { return l.logDir }

// Version is the run version number, -1 on secondary processes.
func (l *Logger) Version() int { return l.version }

// Config returns the hyperparameter bundle.
func (l *Logger) Config() config.Config { return l.cfg }

// LogSpectrogram renders the five waveforms as a stacked grid of dB-scaled
// magnitude spectrograms titled with diffStep and logs it at epoch.
func (l *Logger) LogSpectrogram(y, yNoisy, yRecon, epsError, yReconAllStep *tensor.Tensor, diffStep int, epoch int64) error {
	if !l.Primary() {
		return nil
	}

	inputs := [...]*tensor.Tensor{y, yNoisy, yRecon, epsError, yReconAllStep}
	waves := make([][]float32, len(inputs))
	for i, t := range inputs {
		wave, err := detachWaveform(t)
		if err != nil {
			return fmt.Errorf("log spectrogram %s: %w", spectrogramNames[i], err)
		}
		waves[i] = wave
	}

	panels := make([]render.HeatMapSpec, len(waves))
	for i, wave := range waves {
		mag, err := l.stft.Compute(wave)
		if err != nil {
			return fmt.Errorf("log spectrogram %s: %w", spectrogramNames[i], err)
		}

		db := audio.AmplitudeToDB(mag, topDB)
		lo, _ := db.MinMax()
		panels[i] = render.HeatMapSpec{
			Title:  spectrogramNames[i],
			XLabel: "Frames",
			YLabel: "Channels",
			Data:   render.Matrix{Rows: db.Bins, Cols: db.Frames, Values: db.Data},
			Min:    lo,
			Max:    0,
		}
	}

	img, err := render.Stack(l.backend, fmt.Sprintf("Diffstep_%d", diffStep),
		spectrogramSize[0], spectrogramSize[1], panels)
	if err != nil {
		return fmt.Errorf("log spectrogram: %w", err)
	}

	return l.writeImage(l.resultTag, img, epoch)
}

// LogAlignment renders a 2-D attention alignment as a heat map on a fixed
// [0, 1] colour scale and logs it at epoch.
func (l *Logger) LogAlignment(alignment *tensor.Tensor, epoch int64) error {
	if !l.Primary() {
		return nil
	}

	if alignment == nil {
		return fmt.Errorf("log alignment: nil tensor")
	}

	mat, err := alignment.Leading(2)
	if err != nil {
		return fmt.Errorf("log alignment: %w", err)
	}

	shape := mat.Shape()
	values := make([]float64, mat.ElemCount())
	for i, v := range mat.RawData() {
		values[i] = float64(v)
	}

	panel := render.HeatMapSpec{
		XLabel: "Decoder timestep",
		YLabel: "Encoder timestep",
		Data:   render.Matrix{Rows: int(shape[0]), Cols: int(shape[1]), Values: values},
		Min:    0,
		Max:    1,
	}

	img, err := render.Stack(l.backend, "", alignmentSize[0], alignmentSize[1], []render.HeatMapSpec{panel})
	if err != nil {
		return fmt.Errorf("log alignment: %w", err)
	}

	return l.writeImage(l.alignmentTag, img, epoch)
}

// LogAudio writes the four waveforms as playable clips at the configured
// sampling rate.
func (l *Logger) LogAudio(y, yNoisy, yRecon, yReconAllStep *tensor.Tensor, epoch int64) error {
	if !l.Primary() {
		return nil
	}

	inputs := [...]*tensor.Tensor{y, yNoisy, yRecon, yReconAllStep}
	waves := make([][]float32, len(inputs))
	for i, t := range inputs {
		wave, err := detachWaveform(t)
		if err != nil {
			return fmt.Errorf("log audio %s: %w", audioNames[i], err)
		}
		waves[i] = wave
	}

	for i, wave := range waves {
		if err := l.exp.AddAudio(audioNames[i], wave, epoch, l.cfg.Audio.SamplingRate); err != nil {
			return fmt.Errorf("log audio %s: %w", audioNames[i], err)
		}
	}

	l.log.Debug("audio logged", slog.Int64("epoch", epoch), slog.Int("clips", len(waves)))

	return l.flush()
}

// LogLearningRate records lr at step.
func (l *Logger) LogLearningRate(lr float64, step int64) error {
	if !l.Primary() {
		return nil
	}

	if err := l.exp.AddScalar(LearningRateTag, lr, step); err != nil {
		return fmt.Errorf("log learning rate: %w", err)
	}

	return nil
}

// Close flushes and closes the event writer owned by the logger. An
// injected experiment is flushed but left open. Further calls return nil.
func (l *Logger) Close() error {
	if !l.Primary() || l.closed {
		return nil
	}
	l.closed = true

	if l.closer == nil {
		return l.flush()
	}

	return l.closeOwned()
}

func (l *Logger) closeOwned() error {
	if l.closer == nil {
		return nil
	}

	c := l.closer
	l.closer = nil
	if err := c.Close(); err != nil {
		return fmt.Errorf("close experiment: %w", err)
	}

	return nil
}

func (l *Logger) writeImage(tag string, img render.Image, epoch int64) error {
	if err := l.exp.AddImage(tag, img.Pix, img.Dims(), epoch, tfevents.HWC); err != nil {
		return fmt.Errorf("log image %s: %w", tag, err)
	}

	l.log.Debug("image logged",
		slog.String("tag", tag),
		slog.Int64("epoch", epoch),
		slog.Int("height", img.Height),
		slog.Int("width", img.Width),
	)

	return l.flush()
}

func (l *Logger) flush() error {
	if err := l.exp.Flush(); err != nil {
		return fmt.Errorf("flush experiment: %w", err)
	}

	return nil
}

// detachWaveform copies t to an owned 1-D sample slice. Batched inputs
// contribute their first item.
func detachWaveform(t *tensor.Tensor) ([]float32, error) {
	if t == nil {
		return nil, fmt.Errorf("nil tensor")
	}

	wave, err := t.Leading(1)
	if err != nil {
		return nil, err
	}

	return wave.RawData(), nil
}
