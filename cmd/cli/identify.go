package main

import (
	"fmt"

	"github.com/himanishpuri/ChordLens/internal/report"
	"github.com/himanishpuri/ChordLens/pkg/lyrics"
	"github.com/spf13/cobra"
)

func init() {
	cmdRoot.AddCommand(cmdIdentify())
}

func cmdIdentify() *cobra.Command {
	return &cobra.Command{
		Use:   "identify <audio-file>",
		Short: "Identify the song in an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ident, err := s.Identify(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report.Identification(out, ident)
			if ident != nil && ident.Lyrics != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, lyrics.Reflow(ident.Lyrics))
			}
			fmt.Fprintln(out)
			report.SearchLinks(out, s.LyricsLinks(ident))
			return nil
		},
	}
}
