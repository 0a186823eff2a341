package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subview/internal/subtitle"
	"github.com/MimeLyc/subview/internal/timecode"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [subtitle_file]",
		Short: "Parse an SRT file and list its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := subtitle.NewReader(args[0]).Read()
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(file)
			}
			fmt.Fprintf(out, "%s: %d entries, language %s\n", file.Name, len(file.Entries), subtitle.TrackLanguage(file.Language))
			for _, e := range file.Entries {
				fmt.Fprintf(out, "%4d  %s --> %s  %q\n", e.ID, e.StartText, e.EndText, e.Text)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the parsed file as JSON")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [subtitle_file]",
		Short: "Re-write an SRT file with canonical numbering and timestamps, or convert it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("format")
			format, err := subtitle.ParseOutputFormat(name)
			if err != nil {
				return err
			}
			file, err := subtitle.NewReader(args[0]).Read()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := subtitle.Convert(&buf, file.Name, file.Entries, format); err != nil {
				return fmt.Errorf("convert to %s: %w", format, err)
			}
			return writeOutput(cmd, buf.Bytes())
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default stdout)")
	cmd.Flags().StringP("format", "f", "srt", "Output format: srt, vtt, ass or ttml")
	return cmd
}

func newCaptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captions [subtitle_file]",
		Short: "Convert an SRT file to a WebVTT captions track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := subtitle.NewReader(args[0]).Read()
			if err != nil {
				return err
			}
			return writeOutput(cmd, subtitle.Captions(file.Entries))
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default stdout)")
	return cmd
}

func writeOutput(cmd *cobra.Command, data []byte) error {
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputPath)
	return nil
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [subtitle_file] [time]",
		Short: "Print the subtitle line active at a playback time",
		Long: `Print the subtitle line active at a playback time.

The time is either HH:MM:SS,mmm or a number of milliseconds. Between two
lines the previous line stays active.

Examples:
  subview resolve movie.srt 00:01:02,500
  subview resolve movie.srt 62500`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := subtitle.NewReader(args[0]).Read()
			if err != nil {
				return err
			}
			ms, err := parsePlaybackTime(args[1])
			if err != nil {
				return err
			}
			return printResolved(cmd.OutOrStdout(), file, ms)
		},
	}
}

func parsePlaybackTime(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("time must not be negative: %d", ms)
		}
		return ms, nil
	}
	return timecode.Parse(s)
}

func printResolved(out io.Writer, file *subtitle.File, ms int64) error {
	id, ok := subtitle.Resolve(file.Entries, ms)
	if !ok {
		fmt.Fprintf(out, "%s: no active line\n", timecode.Format(ms))
		return nil
	}
	entry, _ := file.Lookup(id)
	fmt.Fprintf(out, "%s: #%d %s --> %s\n%s\n", timecode.Format(ms), entry.ID, entry.StartText, entry.EndText, entry.Text)
	return nil
}
