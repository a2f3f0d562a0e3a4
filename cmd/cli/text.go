package main

import (
	"fmt"
	"io"
	"os"

	"github.com/himanishpuri/ChordLens/internal/report"
	"github.com/himanishpuri/ChordLens/pkg/lyrics"
	"github.com/himanishpuri/ChordLens/pkg/songmeta"
	"github.com/spf13/cobra"
)

// Commands that only use the local text helpers and need no session.

func init() {
	cmdRoot.AddCommand(cmdGuess())
	cmdRoot.AddCommand(cmdReflow())
	cmdRoot.AddCommand(cmdLyricsLinks())
}

func cmdGuess() *cobra.Command {
	return &cobra.Command{
		Use:   "guess <filename>...",
		Short: "Guess artist and title from filenames",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range args {
				report.Guess(cmd.OutOrStdout(), name, songmeta.Extract(name))
			}
		},
	}
}

func cmdReflow() *cobra.Command {
	return &cobra.Command{
		Use:   "reflow [transcript-file|-]",
		Short: "Reflow a raw lyrics transcript into verses",
		Long:  "Reads a transcript from the given file, or from stdin when the argument is '-' or missing.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read transcript: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), lyrics.Reflow(string(data)))
			return nil
		},
	}
}

func cmdLyricsLinks() *cobra.Command {
	return &cobra.Command{
		Use:   "lyrics-links <artist> <title>",
		Short: "Print lyric search links for a song",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			report.SearchLinks(cmd.OutOrStdout(), lyrics.SearchLinks(args[0], args[1]))
		},
	}
}
