package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/himanishpuri/ChordLens/internal/download"
	"github.com/himanishpuri/ChordLens/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	cmdRoot.AddCommand(cmdVideo())
}

func cmdVideo() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "video",
		Aliases: []string{"yt"},
		Short:   "Preview and download YouTube videos through the download service",
	}
	cmd.AddCommand(cmdVideoInfo(), cmdVideoDownload(), cmdVideoList())
	return cmd
}

// explained rewrites download errors into something a user can act on.
func explained(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(download.Explain(err))
}

func cmdVideoInfo() *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Show video details without downloading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			info, err := s.VideoInfo(cmd.Context(), args[0])
			if err != nil {
				return explained(err)
			}
			report.VideoInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
}

func cmdVideoDownload() *cobra.Command {
	var (
		asVideo bool
		format  string
		quality string
	)

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download the audio (default) or the full video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			kind, option := download.KindAudio, format
			if asVideo {
				kind, option = download.KindVideo, quality
			}

			res, err := s.FetchVideo(cmd.Context(), args[0], kind, option)
			if err != nil {
				return explained(err)
			}
			report.Download(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asVideo, "video", false, "Download the video instead of extracting audio")
	cmd.Flags().StringVarP(&format, "format", "f", download.DefaultAudioFormat, "Audio format: mp3, wav, m4a, flac, webm or ogg")
	cmd.Flags().StringVarP(&quality, "quality", "q", download.DefaultVideoQuality, "Video quality, e.g. 480p, 720p, 1080p")
	return cmd
}

func cmdVideoList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files held by the download service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			files, err := s.Downloads(cmd.Context())
			if err != nil {
				return explained(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "MODIFIED\tSIZE\tFILE")
			for _, f := range files {
				fmt.Fprintf(w, "%s\t%.2f MB\t%s\n", f.ModifiedTime().Format("2006-01-02 15:04"), f.SizeMB, f.Filename)
			}
			return nil
		},
	}
}
