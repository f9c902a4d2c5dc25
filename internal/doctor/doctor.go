// Package doctor provides preflight checks for an experiment logging run.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// ProbeFunc returns a short status string or an error if the check failed.
type ProbeFunc func() (string, error)

// Check is one named probe.
type Check struct {
	Name  string
	Probe ProbeFunc
}

// Config holds the checks to run.
type Config struct {
	// Checks run in order before the directory checks.
	Checks []Check
	// WritableDirs must exist or be creatable, and accept new files.
	WritableDirs []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	for _, c := range cfg.Checks {
		status, err := c.Probe()
		if err != nil {
			res.fail(fmt.Sprintf("%s: %v", c.Name, err))
			fmt.Fprintf(w, "%s %s: %v\n", FailMark, c.Name, err)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", PassMark, c.Name, status)
	}

	for _, dir := range cfg.WritableDirs {
		if err := checkWritable(dir); err != nil {
			res.fail(fmt.Sprintf("log dir %q: %v", dir, err))
			fmt.Fprintf(w, "%s log dir %s: not writable (%v)\n", FailMark, dir, err)
		} else {
			fmt.Fprintf(w, "%s log dir: %s\n", PassMark, dir)
		}
	}

	return res
}

// CheckSTFT returns an error if the frame geometry would skip samples or
// cannot be reflect-padded.
func CheckSTFT(filterLength, hopLength int) error {
	if filterLength < 2 {
		return fmt.Errorf("filter_length %d is too small", filterLength)
	}
	if hopLength < 1 {
		return fmt.Errorf("hop_length %d must be positive", hopLength)
	}
	if hopLength > filterLength {
		return fmt.Errorf("hop_length %d exceeds filter_length %d; samples would be skipped", hopLength, filterLength)
	}
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()

	closeErr := f.Close()
	removeErr := os.Remove(filepath.Clean(name))
	if closeErr != nil {
		return closeErr
	}
	return removeErr
}
