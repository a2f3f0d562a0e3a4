package main

import (
	"fmt"

	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	cmdRoot.AddCommand(cmdAnalyze())
}

func cmdAnalyze() *cobra.Command {
	var (
		fullTimeline bool
		saveLyrics   bool
		exportFormat string
	)

	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Upload an audio file and print its chord analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportFormat != "" && !analysis.IsExportFormat(exportFormat) {
				return fmt.Errorf("%w: %q", analysis.ErrUnsupportedFormat, exportFormat)
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report.Preview(out, res.File)
			fmt.Fprintln(out)
			report.Analysis(out, res.Document, res.Identification, res.Verses)
			if res.GuessConflict {
				fmt.Fprintf(out, "\nNote: the filename suggests %s by %s\n", res.Guess.Title, res.Guess.Artist)
			}

			if fullTimeline && len(res.Document.Timeline) > report.TimelinePreview {
				fmt.Fprintln(out)
				report.Timeline(out, res.Document.Timeline)
			}

			if len(res.Verses) == 0 {
				fmt.Fprintln(out)
				report.SearchLinks(out, s.LyricsLinks(res.Identification))
			} else if saveLyrics {
				path, err := s.SaveLyrics(res)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nLyrics saved to %s\n", path)
			}

			if exportFormat != "" {
				path, err := s.Export(cmd.Context(), exportFormat)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Analysis exported to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fullTimeline, "full-timeline", false, "Print every detected chord")
	cmd.Flags().BoolVar(&saveLyrics, "save-lyrics", false, "Write reflowed lyrics to the output directory")
	cmd.Flags().StringVar(&exportFormat, "export", "", "Also export the result (json or txt)")
	return cmd
}
