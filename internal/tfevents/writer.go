package tfevents

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/go-tblogger/internal/audio"
)

// ErrClosed is returned by writes on a closed Writer.
var ErrClosed = errors.New("tfevents: writer closed")

// FilePrefix starts the name of every event file.
const FilePrefix = "events.out.tfevents."

var fileSeq atomic.Int64

// Writer appends summaries to a single TensorBoard event file. It is safe
// for concurrent use.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	buf    *bufio.Writer
	closed bool

	log *slog.Logger
	now func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the slog.Logger used for write diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithClock overrides the wall clock stamped on events.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWriter creates dir if needed, opens a fresh event file in it and writes
// the file-version header event.
func NewWriter(dir string, opts ...Option) (*Writer, error) {
	w := &Writer{
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}

	name := fmt.Sprintf("%s%010d.%s.%d.%d", FilePrefix, w.now().Unix(), host, os.Getpid(), fileSeq.Add(1)-1)
	w.path = filepath.Join(dir, name)

	// #nosec G304 -- path is built from the caller's log directory.
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create event file: %w", err)
	}
	w.file = f
	w.buf = bufio.NewWriter(f)

	if err := w.write(Event{FileVersion: FileVersion}); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.buf.Flush(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flush event file: %w", err)
	}

	w.log.Debug("event file opened", slog.String("path", w.path))

	return w, nil
}

// Path returns the event file location.
func (w *Writer) Path() string {
	return w.path
}

// AddScalar records a single float under tag.
func (w *Writer) AddScalar(tag string, value float64, step int64) error {
	v := float32(value)
	return w.add(step, Value{Tag: tag, Scalar: &v})
}

// AddImage records a uint8 image. dims is interpreted according to format
// (for HWC: height, width, channels).
func (w *Writer) AddImage(tag string, pix []uint8, dims []int, step int64, format DataFormat) error {
	img, err := toImage(pix, dims, format)
	if err != nil {
		return err
	}

	encoded, err := encodePNG(img)
	if err != nil {
		return err
	}

	return w.add(step, Value{Tag: tag, Image: &ImageSummary{
		Height:     int32(img.Bounds().Dy()),
		Width:      int32(img.Bounds().Dx()),
		Colorspace: colorspace(img),
		Encoded:    encoded,
	}})
}

// AddAudio records a mono clip encoded as 16-bit WAV at sampleRate.
func (w *Writer) AddAudio(tag string, samples []float32, step int64, sampleRate int) error {
	encoded, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		return fmt.Errorf("encode audio %q: %w", tag, err)
	}

	return w.add(step, Value{Tag: tag, Audio: &AudioSummary{
		SampleRate:   float32(sampleRate),
		NumChannels:  audio.Channels,
		LengthFrames: int64(len(samples)),
		Encoded:      encoded,
		ContentType:  "audio/wav",
	}})
}

// Flush writes buffered events to the file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush event file: %w", err)
	}

	return nil
}

// Close flushes and closes the file. Further calls return nil.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush event file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close event file: %w", closeErr)
	}

	return nil
}

func (w *Writer) add(step int64, v Value) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	if err := w.write(Event{Step: step, Values: []Value{v}}); err != nil {
		return err
	}

	w.log.Debug("summary written",
		slog.String("tag", v.Tag),
		slog.String("kind", v.Kind()),
		slog.Int64("step", step),
		slog.Int("bytes", v.PayloadSize()),
	)

	return nil
}

// write must be called with mu held (or before the Writer is shared).
func (w *Writer) write(e Event) error {
	now := w.now()
	e.WallTime = float64(now.Unix()) + float64(now.Nanosecond())/1e9
	if _, err := writeRecord(w.buf, e.marshal()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}
