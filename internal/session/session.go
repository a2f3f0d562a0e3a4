// Package session ties the analysis and download services, local history
// and the text helpers into one object owned by a single caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/arunsworld/nursery"
	"github.com/gosimple/slug"
	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/audio"
	"github.com/himanishpuri/ChordLens/internal/download"
	"github.com/himanishpuri/ChordLens/internal/storage"
	"github.com/himanishpuri/ChordLens/pkg/logger"
	"github.com/himanishpuri/ChordLens/pkg/lyrics"
	"github.com/himanishpuri/ChordLens/pkg/songmeta"
	"github.com/himanishpuri/ChordLens/pkg/utils"
)

// maxGuessDistance is the share of a name that may differ before a
// filename guess is considered to disagree with the backend.
const maxGuessDistance = 0.4

// ErrNoAnalysis is returned by exports when nothing has been analysed yet.
var ErrNoAnalysis = errors.New("no analysis available")

// Current is what the session is working on.
type Current struct {
	AnalysisID int
	File       string
	Guess      songmeta.FilenameGuess
}

// Result is the outcome of AnalyzeFile.
type Result struct {
	File           *audio.FileInfo
	Guess          songmeta.FilenameGuess
	Document       *analysis.StatusDocument
	Identification *analysis.SongIdentification
	Lyrics         string
	Verses         []lyrics.Verse
	RecordID       string

	// GuessConflict is set when both the backend and the filename named
	// the song and they disagree.
	GuessConflict bool
}

// ServiceStatus reports the reachability of both backends.
type ServiceStatus struct {
	AnalysisURL string
	AnalysisErr error
	DownloadURL string
	Download    *download.HealthStatus
	DownloadErr error
}

type Session struct {
	analyzer   Analyzer
	downloader Downloader
	store      Store
	log        Logger
	config     *Config
	current    Current
}

func New(opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	if cfg.Analyzer == nil {
		clientOpts := []analysis.ClientOption{
			analysis.WithPollInterval(cfg.PollInterval),
			analysis.WithMaxAttempts(cfg.MaxAttempts),
			analysis.WithLogger(cfg.Logger),
		}
		if cfg.HTTPClient != nil {
			clientOpts = append(clientOpts, analysis.WithHTTPClient(cfg.HTTPClient))
		}
		cfg.Analyzer = analysis.NewClient(cfg.AnalysisURL, clientOpts...)
	}
	if cfg.Downloader == nil {
		cfg.Downloader = download.NewClient(cfg.DownloadURL, cfg.HTTPClient)
	}

	if cfg.Store == nil {
		var (
			db  *storage.DBClient
			err error
		)
		if cfg.DBPath != "" {
			db, err = storage.NewDBClientWithPath(cfg.DBPath)
		} else {
			db, err = storage.NewDBClient()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		cfg.Store = db
	}

	return &Session{
		analyzer:   cfg.Analyzer,
		downloader: cfg.Downloader,
		store:      cfg.Store,
		log:        cfg.Logger,
		config:     cfg,
	}, nil
}

func (s *Session) Current() Current {
	return s.current
}

func (s *Session) Close() error {
	return s.store.Close()
}

// CheckServices probes both backends. Failures are reported in the
// returned status, not as an error.
func (s *Session) CheckServices(ctx context.Context) ServiceStatus {
	st := ServiceStatus{
		AnalysisURL: s.config.AnalysisURL,
		DownloadURL: s.config.DownloadURL,
	}
	// Neither job reports through the nursery channel, so a failing
	// backend never cancels the other probe.
	_ = nursery.RunConcurrently(
		func(_ context.Context, _ chan error) {
			st.AnalysisErr = s.analyzer.Health(ctx)
		},
		func(_ context.Context, _ chan error) {
			st.Download, st.DownloadErr = s.downloader.Health(ctx)
		},
	)
	return st
}

// AnalyzeFile uploads the audio at path, waits for the analysis to finish
// and records the outcome in history.
func (s *Session) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	info, err := audio.PreviewWithTags(ctx, path)
	if err != nil {
		return nil, err
	}

	guess := songmeta.Extract(info.Name)
	s.current = Current{File: path, Guess: guess}
	s.log.Infof("Analysing %s (%.2f MB)", info.Name, info.SizeMB)
	if guess.Identified {
		s.log.Debugf("Filename suggests %q by %q", guess.Title, guess.Artist)
	}

	rec := &storage.AnalysisRecord{
		SourceFile: path,
		Artist:     guess.Artist,
		Title:      guess.Title,
	}

	id, err := s.analyzer.Upload(ctx, path)
	if err != nil {
		s.recordFailure(rec, err)
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	s.current.AnalysisID = id
	rec.RemoteID = id
	s.log.Infof("Upload accepted as analysis %d, waiting for results", id)

	doc, err := s.analyzer.Poll(ctx, id)
	if err != nil {
		s.recordFailure(rec, err)
		return nil, err
	}

	ident := ResolveIdentification(doc.SongIdentification, guess)
	raw := doc.Lyrics
	if strings.TrimSpace(raw) == "" && ident != nil {
		raw = ident.Lyrics
	}

	res := &Result{
		File:           info,
		Guess:          guess,
		Document:       doc,
		Identification: ident,
		Lyrics:         lyrics.Reflow(raw),
		Verses:         lyrics.Verses(raw),
		GuessConflict:  Conflicts(doc.SongIdentification, guess),
	}
	if res.GuessConflict {
		s.log.Warnf("Backend identified %q by %q but the filename suggests %q by %q",
			ident.Title, ident.Artist, guess.Title, guess.Artist)
	}

	rec.Status = doc.Status
	rec.Key = doc.Key
	rec.BPM = doc.BPM
	rec.DurationSec = doc.Duration
	if ident != nil && ident.Identified {
		rec.Artist = ident.Artist
		rec.Title = ident.Title
		rec.IdentificationSource = ident.Source
		rec.Confidence = ident.Confidence
	}
	if err := s.store.SaveAnalysis(rec); err != nil {
		s.log.Warnf("Failed to record analysis %d: %v", id, err)
	} else {
		res.RecordID = rec.ID
	}

	s.log.Infof("Analysis %d complete: key %s, %.0f BPM", id, orUnknown(doc.Key), doc.BPM)
	return res, nil
}

func (s *Session) recordFailure(rec *storage.AnalysisRecord, cause error) {
	rec.Status = analysis.StatusError
	rec.Error = cause.Error()
	if err := s.store.SaveAnalysis(rec); err != nil {
		s.log.Warnf("Failed to record failed analysis: %v", err)
	}
}

// ResolveIdentification picks the identification to show. The backend's
// answer wins when it identified the song; otherwise an identified
// filename guess is used. If neither identified anything the backend's
// answer, possibly nil, is returned.
func ResolveIdentification(backend *analysis.SongIdentification, guess songmeta.FilenameGuess) *analysis.SongIdentification {
	if backend != nil && backend.Identified {
		return backend
	}
	if guess.Identified {
		return &analysis.SongIdentification{
			Identified: true,
			Title:      guess.Title,
			Artist:     guess.Artist,
			Confidence: guess.Confidence,
			Source:     guess.Source,
		}
	}
	return backend
}

// Conflicts reports whether an identified backend answer and an
// identified filename guess name clearly different songs. Case, accents
// and punctuation are ignored, and small edit distances are tolerated.
func Conflicts(backend *analysis.SongIdentification, guess songmeta.FilenameGuess) bool {
	if backend == nil || !backend.Identified || !guess.Identified {
		return false
	}
	a := slug.Make(backend.Artist + " " + backend.Title)
	b := slug.Make(guess.Artist + " " + guess.Title)
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return false
	}
	longest := max(len(a), len(b))
	return float64(levenshtein.ComputeDistance(a, b))/float64(longest) > maxGuessDistance
}

// Identify asks the backend who performs the audio at path, falling back
// to the filename when the backend cannot tell.
func (s *Session) Identify(ctx context.Context, path string) (*analysis.SongIdentification, error) {
	name := filepath.Base(path)
	if !songmeta.IsSupportedAudio(name) {
		return nil, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, name)
	}

	guess := songmeta.Extract(name)
	s.current = Current{File: path, Guess: guess}

	backend, err := s.analyzer.Identify(ctx, path)
	if err != nil {
		if !guess.Identified {
			return nil, fmt.Errorf("identification failed: %w", err)
		}
		s.log.Warnf("Identification failed, using filename: %v", err)
		backend = nil
	}
	return ResolveIdentification(backend, guess), nil
}

// Export saves the current analysis in format and returns the file path.
// Without a current analysis the most recent one from history is used.
func (s *Session) Export(ctx context.Context, format string) (string, error) {
	id := s.current.AnalysisID
	if id == 0 {
		rec, err := s.store.LatestAnalysis()
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", ErrNoAnalysis
			}
			return "", err
		}
		id = rec.RemoteID
	}
	return s.ExportAnalysis(ctx, id, format)
}

// ExportAnalysis saves analysis id in format and returns the file path.
func (s *Session) ExportAnalysis(ctx context.Context, id int, format string) (string, error) {
	if id <= 0 {
		return "", ErrNoAnalysis
	}
	data, _, err := s.analyzer.Export(ctx, id, format)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("music_analysis_%d.%s", id, format)
	path, err := utils.WriteFile(s.config.OutputDir, name, data)
	if err != nil {
		return "", err
	}
	s.log.Infof("Exported analysis %d to %s", id, path)
	return path, nil
}

// SaveLyrics writes the reflowed lyrics of res next to the exports.
func (s *Session) SaveLyrics(res *Result) (string, error) {
	if strings.TrimSpace(res.Lyrics) == "" {
		return "", errors.New("no lyrics to save")
	}

	artist, title := res.Guess.Artist, res.Guess.Title
	if id := res.Identification; id != nil && id.Identified {
		artist, title = id.Artist, id.Title
	}
	base := slug.Make(artist + " " + title)
	if base == "" {
		base = fmt.Sprintf("analysis-%d", res.Document.ID)
	}

	return utils.WriteFile(s.config.OutputDir, base+"-lyrics.txt", []byte(res.Lyrics+"\n"))
}

// LyricsLinks builds lyric search links for ident, or for the current
// filename guess when ident names no artist.
func (s *Session) LyricsLinks(ident *analysis.SongIdentification) []lyrics.SearchSite {
	artist, title := s.current.Guess.Artist, s.current.Guess.Title
	if ident != nil && ident.Identified && !isUnknown(ident.Artist) {
		artist, title = ident.Artist, ident.Title
	}
	return lyrics.SearchLinks(artist, title)
}

// VideoInfo previews a video through the download service.
func (s *Session) VideoInfo(ctx context.Context, videoURL string) (*download.VideoInfo, error) {
	return s.downloader.Info(ctx, videoURL)
}

// FetchVideo downloads videoURL as audio in the given format, or as
// video at the given quality when kind is download.KindVideo, and
// records it in history.
func (s *Session) FetchVideo(ctx context.Context, videoURL, kind, option string) (*download.DownloadResult, error) {
	var (
		res *download.DownloadResult
		err error
	)
	switch kind {
	case download.KindAudio, "":
		kind = download.KindAudio
		res, err = s.downloader.DownloadAudio(ctx, videoURL, option)
	case download.KindVideo:
		res, err = s.downloader.DownloadVideo(ctx, videoURL, option)
	default:
		return nil, fmt.Errorf("unknown download kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	s.log.Infof("Downloaded %q (%s)", res.Title, res.Format)

	videoID, _ := utils.ExtractYouTubeID(strings.TrimSpace(videoURL))
	rec := &storage.DownloadRecord{
		URL:      strings.TrimSpace(videoURL),
		VideoID:  videoID,
		Kind:     kind,
		Format:   res.Format,
		Title:    res.Title,
		Artist:   res.Artist,
		FilePath: res.FilePath,
		FileSize: res.FileSize,
	}
	if err := s.store.SaveDownload(rec); err != nil {
		s.log.Warnf("Failed to record download: %v", err)
	}
	return res, nil
}

// Downloads lists the files held by the download service.
func (s *Session) Downloads(ctx context.Context) ([]download.DownloadedFile, error) {
	listing, err := s.downloader.List(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Downloads, nil
}

func (s *Session) History(limit int) ([]storage.AnalysisRecord, error) {
	return s.store.ListAnalyses(limit)
}

func (s *Session) DownloadHistory(limit int) ([]storage.DownloadRecord, error) {
	return s.store.ListDownloads(limit)
}

func isUnknown(artist string) bool {
	a := strings.TrimSpace(artist)
	return a == "" || strings.EqualFold(a, songmeta.UnknownArtist)
}

func orUnknown(s string) string {
	if s == "" {
		return songmeta.UnknownArtist
	}
	return s
}
