package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/audio"
	"github.com/spf13/cobra"
)

func init() {
	cmdRoot.AddCommand(cmdExport())
	cmdRoot.AddCommand(cmdHistory())
	cmdRoot.AddCommand(cmdStatus())
}

func cmdExport() *cobra.Command {
	var id int

	cmd := &cobra.Command{
		Use:       "export <json|txt>",
		Short:     "Save an analysis in the given format",
		Long:      "Exports the analysis given by --id, or the most recent one in history.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: analysis.ExportFormats,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			var path string
			if id > 0 {
				path, err = s.ExportAnalysis(cmd.Context(), id, args[0])
			} else {
				path, err = s.Export(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().IntVar(&id, "id", 0, "Backend analysis ID to export")
	return cmd
}

func cmdHistory() *cobra.Command {
	var (
		limit     int
		downloads bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past analyses or downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			if downloads {
				recs, err := s.DownloadHistory(limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "WHEN\tKIND\tFORMAT\tTITLE\tPATH")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						r.CreatedAt.Format("2006-01-02 15:04"), r.Kind, r.Format, r.Title, r.FilePath)
				}
				return nil
			}

			recs, err := s.History(limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "WHEN\tID\tSTATUS\tKEY\tBPM\tLENGTH\tSONG")
			for _, r := range recs {
				song := r.Title
				if r.Artist != "" {
					song = r.Artist + " - " + r.Title
				}
				status := r.Status
				if r.Error != "" {
					status += " (" + r.Error + ")"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.0f\t%s\t%s\n",
					r.CreatedAt.Format("2006-01-02 15:04"), r.RemoteID, status, r.Key, r.BPM,
					audio.FormatDuration(r.DurationSec), song)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&downloads, "downloads", false, "List downloads instead of analyses")
	return cmd
}

func cmdStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the analysis and download services are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			st := s.CheckServices(cmd.Context())
			out := cmd.OutOrStdout()
			if st.AnalysisErr != nil {
				fmt.Fprintf(out, "analysis  %s  DOWN: %v\n", st.AnalysisURL, st.AnalysisErr)
			} else {
				fmt.Fprintf(out, "analysis  %s  OK\n", st.AnalysisURL)
			}
			switch {
			case st.DownloadErr != nil:
				fmt.Fprintf(out, "download  %s  DOWN: %v\n", st.DownloadURL, st.DownloadErr)
			case !st.Download.YouTubeAvailable:
				fmt.Fprintf(out, "download  %s  OK (yt-dlp missing)\n", st.DownloadURL)
			default:
				fmt.Fprintf(out, "download  %s  OK\n", st.DownloadURL)
			}
			return nil
		},
	}
}
