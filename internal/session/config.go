package session

import (
	"net/http"
	"time"

	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/download"
)

type Config struct {
	AnalysisURL  string
	DownloadURL  string
	PollInterval time.Duration
	MaxAttempts  int
	HTTPClient   *http.Client
	DBPath       string
	OutputDir    string
	Logger       Logger
	Store        Store
	Analyzer     Analyzer
	Downloader   Downloader
}

type Option func(*Config)

func WithAnalysisURL(url string) Option {
	return func(c *Config) {
		c.AnalysisURL = url
	}
}

func WithDownloadURL(url string) Option {
	return func(c *Config) {
		c.DownloadURL = url
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.OutputDir = dir
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStore(store Store) Option {
	return func(c *Config) {
		c.Store = store
	}
}

// WithAnalyzer replaces the HTTP analysis client.
func WithAnalyzer(a Analyzer) Option {
	return func(c *Config) {
		c.Analyzer = a
	}
}

// WithDownloader replaces the HTTP download client.
func WithDownloader(d Downloader) Option {
	return func(c *Config) {
		c.Downloader = d
	}
}

func defaultConfig() *Config {
	return &Config{
		AnalysisURL:  analysis.DefaultBaseURL,
		DownloadURL:  download.DefaultBaseURL,
		PollInterval: analysis.DefaultPollInterval,
		MaxAttempts:  analysis.DefaultMaxAttempts,
		OutputDir:    ".",
	}
}
