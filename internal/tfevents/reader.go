package tfevents

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadEvents decodes every record in r.
func ReadEvents(r io.Reader) ([]Event, error) {
	br := bufio.NewReader(r)

	var events []Event
	for {
		data, err := readRecord(br)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}

		e, err := unmarshalEvent(data)
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}

// ReadFile decodes all events in one event file.
func ReadFile(path string) ([]Event, error) {
	// #nosec G304 -- reading a user-selected event file is the point.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	events, err := ReadEvents(f)
	if err != nil {
		return events, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	return events, nil
}

// EventFiles lists event files below root in lexical order. root may also be
// a single event file.
func EventFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), FilePrefix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}
