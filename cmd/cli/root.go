package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/download"
	"github.com/himanishpuri/ChordLens/internal/session"
	"github.com/himanishpuri/ChordLens/internal/storage"
	"github.com/himanishpuri/ChordLens/pkg/logger"
	"github.com/spf13/cobra"
)

// Global flags
var (
	apiURL       string
	downloadsURL string
	dbPath       string
	outputDir    string
	pollInterval time.Duration
	maxAttempts  int
	noColor      bool
	verbose      bool
)

var cmdRoot = &cobra.Command{
	Use:   "chordlens",
	Short: "Chord, key and tempo analysis from the command line",
	Long: `chordlens uploads audio to the analysis backend, waits for the chord,
key and tempo results and prints them. It also guesses song metadata from
filenames, reflows transcribed lyrics and drives the YouTube download service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
		log := logger.GetLogger()
		log.SetColorize(!color.NoColor)
		if verbose {
			log.SetLevel(logger.DEBUG)
			log.SetShowCaller(true)
		}
	},
}

func init() {
	flags := cmdRoot.PersistentFlags()
	flags.StringVar(&apiURL, "api", getEnvOrDefault("CHORDLENS_API_URL", analysis.DefaultBaseURL), "Analysis backend base URL")
	flags.StringVar(&downloadsURL, "downloads-api", getEnvOrDefault("CHORDLENS_DOWNLOAD_URL", download.DefaultBaseURL), "Download service base URL")
	flags.StringVar(&dbPath, "db", getEnvOrDefault("CHORDLENS_DB_PATH", defaultDBPath()), "Path to the history database")
	flags.StringVarP(&outputDir, "out", "o", getEnvOrDefault("CHORDLENS_OUTPUT_DIR", filepath.Join(xdg.UserDirs.Download, "chordlens")), "Directory for exports and saved lyrics")
	flags.DurationVar(&pollInterval, "poll-interval", analysis.DefaultPollInterval, "Delay between analysis status checks")
	flags.IntVar(&maxAttempts, "max-attempts", getEnvIntOrDefault("CHORDLENS_MAX_ATTEMPTS", analysis.DefaultMaxAttempts), "Status checks before giving up")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmdRoot.ExecuteContext(ctx); err != nil {
		stop()
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// defaultDBPath keeps history under the XDG data directory, falling back
// to the working directory when it cannot be created.
func defaultDBPath() string {
	path, err := xdg.DataFile(filepath.Join("chordlens", storage.DefaultDBFile))
	if err != nil {
		return storage.DefaultDBFile
	}
	return path
}

// newSession creates a session from the global flags.
func newSession() (*session.Session, error) {
	s, err := session.New(
		session.WithAnalysisURL(apiURL),
		session.WithDownloadURL(downloadsURL),
		session.WithDBPath(dbPath),
		session.WithOutputDir(outputDir),
		session.WithPollInterval(pollInterval),
		session.WithMaxAttempts(maxAttempts),
		session.WithLogger(logger.GetLogger()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return s, nil
}
