package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/example/go-tblogger/internal/tfevents"
	"github.com/h2non/filetype"
	"github.com/spf13/cobra"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file|dir>",
		Short: "List the summaries stored in an event file or run directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], cmd.OutOrStdout())
		},
	}
}

func runInspect(root string, out io.Writer) error {
	files, err := tfevents.EventFiles(root)
	if err != nil {
		return fmt.Errorf("list event files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no event files under %s", root)
	}

	for _, path := range files {
		events, err := tfevents.ReadFile(path)
		if err != nil {
			return err
		}

		var size uint64
		if info, err := os.Stat(path); err == nil {
			size = uint64(info.Size())
		}

		_, _ = fmt.Fprintf(out, "%s (%s, %d events)\n", path, humanize.Bytes(size), len(events))

		t := newSummaryTable()
		for _, e := range events {
			for _, v := range e.Values {
				t.Row(strconv.FormatInt(e.Step, 10), v.Kind(), v.Tag, describe(v))
			}
		}
		_, _ = fmt.Fprintln(out, t.Render())
	}

	return nil
}

func newSummaryTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("Step", "Kind", "Tag", "Value").
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == lgtable.HeaderRow:
				return headerRowStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col == 0 {
				return s.Align(lipgloss.Right)
			}
			return s
		})
}

func describe(v tfevents.Value) string {
	switch {
	case v.Scalar != nil:
		return strconv.FormatFloat(float64(*v.Scalar), 'g', -1, 32)
	case v.Image != nil:
		return fmt.Sprintf("%dx%dx%d %s %s", v.Image.Height, v.Image.Width, v.Image.Colorspace,
			payloadType(v.Image.Encoded), humanize.Bytes(uint64(v.PayloadSize())))
	case v.Audio != nil:
		return fmt.Sprintf("%s frames @ %s Hz %s %s", humanize.Comma(v.Audio.LengthFrames),
			humanize.Comma(int64(v.Audio.SampleRate)), payloadType(v.Audio.Encoded),
			humanize.Bytes(uint64(v.PayloadSize())))
	default:
		return ""
	}
}

// payloadType sniffs the encoded payload rather than trusting the summary
// metadata.
func payloadType(b []byte) string {
	kind, err := filetype.Match(b)
	if err != nil || kind == filetype.Unknown {
		return "unknown"
	}
	return kind.Extension
}
