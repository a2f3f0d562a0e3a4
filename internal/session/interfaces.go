package session

import (
	"context"

	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/download"
	"github.com/himanishpuri/ChordLens/internal/storage"
)

type Analyzer interface {
	Health(ctx context.Context) error
	Upload(ctx context.Context, path string) (int, error)
	Poll(ctx context.Context, id int) (*analysis.StatusDocument, error)
	Export(ctx context.Context, id int, format string) ([]byte, string, error)
	Identify(ctx context.Context, path string) (*analysis.SongIdentification, error)
}

type Downloader interface {
	Health(ctx context.Context) (*download.HealthStatus, error)
	Info(ctx context.Context, videoURL string) (*download.VideoInfo, error)
	DownloadAudio(ctx context.Context, videoURL, format string) (*download.DownloadResult, error)
	DownloadVideo(ctx context.Context, videoURL, quality string) (*download.DownloadResult, error)
	List(ctx context.Context) (*download.DownloadListing, error)
}

type Store interface {
	SaveAnalysis(rec *storage.AnalysisRecord) error
	LatestAnalysis() (*storage.AnalysisRecord, error)
	ListAnalyses(limit int) ([]storage.AnalysisRecord, error)
	SaveDownload(rec *storage.DownloadRecord) error
	ListDownloads(limit int) ([]storage.DownloadRecord, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
