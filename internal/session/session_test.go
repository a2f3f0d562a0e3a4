package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/audio"
	"github.com/himanishpuri/ChordLens/internal/download"
	"github.com/himanishpuri/ChordLens/pkg/logger"
	"github.com/himanishpuri/ChordLens/pkg/songmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	uploadID    int
	uploadErr   error
	doc         *analysis.StatusDocument
	pollErr     error
	ident       *analysis.SongIdentification
	identErr    error
	exported    map[int]string
	uploadPaths []string
}

func (f *fakeAnalyzer) Health(ctx context.Context) error { return nil }

func (f *fakeAnalyzer) Upload(ctx context.Context, path string) (int, error) {
	f.uploadPaths = append(f.uploadPaths, path)
	return f.uploadID, f.uploadErr
}

func (f *fakeAnalyzer) Poll(ctx context.Context, id int) (*analysis.StatusDocument, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	doc := *f.doc
	doc.ID = id
	return &doc, nil
}

func (f *fakeAnalyzer) Export(ctx context.Context, id int, format string) ([]byte, string, error) {
	if !analysis.IsExportFormat(format) {
		return nil, "", analysis.ErrUnsupportedFormat
	}
	if f.exported == nil {
		f.exported = map[int]string{}
	}
	f.exported[id] = format
	return []byte("export of " + format), "text/plain", nil
}

func (f *fakeAnalyzer) Identify(ctx context.Context, path string) (*analysis.SongIdentification, error) {
	return f.ident, f.identErr
}

type fakeDownloader struct {
	lastFormat  string
	lastQuality string
}

func (f *fakeDownloader) Health(ctx context.Context) (*download.HealthStatus, error) {
	return nil, errors.New("connection refused")
}

func (f *fakeDownloader) Info(ctx context.Context, videoURL string) (*download.VideoInfo, error) {
	return &download.VideoInfo{Title: "Preview"}, nil
}

func (f *fakeDownloader) DownloadAudio(ctx context.Context, videoURL, format string) (*download.DownloadResult, error) {
	f.lastFormat = format
	return &download.DownloadResult{Title: "Song", Artist: "Band", Format: "mp3", FileSize: 100, FilePath: "./downloads/Song.mp3"}, nil
}

func (f *fakeDownloader) DownloadVideo(ctx context.Context, videoURL, quality string) (*download.DownloadResult, error) {
	f.lastQuality = quality
	return &download.DownloadResult{Title: "Clip", Format: "mp4", Quality: quality}, nil
}

func (f *fakeDownloader) List(ctx context.Context) (*download.DownloadListing, error) {
	return &download.DownloadListing{Downloads: []download.DownloadedFile{{Filename: "Song.mp3"}}, Total: 1}, nil
}

func newTestSession(t *testing.T, a *fakeAnalyzer) (*Session, *fakeDownloader, string) {
	t.Helper()
	dir := t.TempDir()
	d := &fakeDownloader{}

	s, err := New(
		WithAnalyzer(a),
		WithDownloader(d),
		WithDBPath(filepath.Join(dir, "history.sqlite3")),
		WithOutputDir(filepath.Join(dir, "out")),
		WithLogger(logger.New(logger.Config{Output: io.Discard})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, d, dir
}

func writeAudio(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))
	return path
}

func completedDoc() *analysis.StatusDocument {
	return &analysis.StatusDocument{
		Status:   analysis.StatusCompleted,
		Key:      "G major",
		BPM:      110,
		Duration: 200,
		Lyrics:   "[Transcription]: The first line is long enough. The second line is long enough.",
	}
}

func TestAnalyzeFileFallsBackToFilenameGuess(t *testing.T) {
	a := &fakeAnalyzer{uploadID: 31, doc: completedDoc()}
	s, _, dir := newTestSession(t, a)

	res, err := s.AnalyzeFile(context.Background(), writeAudio(t, dir, "Queen - Bohemian Rhapsody.mp3"))
	require.NoError(t, err)

	require.NotNil(t, res.Identification)
	assert.Equal(t, "Queen", res.Identification.Artist)
	assert.Equal(t, "Bohemian Rhapsody", res.Identification.Title)
	assert.Equal(t, songmeta.SourceFilename, res.Identification.Source)
	assert.Equal(t, 0.95, res.Identification.Confidence)
	assert.Equal(t, "The first line is long enough.\nThe second line is long enough.", res.Lyrics)
	assert.Len(t, res.Verses, 1)
	assert.Equal(t, 31, s.Current().AnalysisID)

	history, err := s.History(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.RecordID, history[0].ID)
	assert.Equal(t, 31, history[0].RemoteID)
	assert.Equal(t, "G major", history[0].Key)
	assert.Equal(t, "filename", history[0].IdentificationSource)
}

func TestAnalyzeFilePrefersBackendIdentification(t *testing.T) {
	doc := completedDoc()
	doc.Lyrics = ""
	doc.SongIdentification = &analysis.SongIdentification{
		Identified: true, Title: "Real Title", Artist: "Real Artist", Confidence: 0.8, Source: "shazam",
		Lyrics: "A lyric line that is long enough to keep.",
	}
	a := &fakeAnalyzer{uploadID: 2, doc: doc}
	s, _, dir := newTestSession(t, a)

	res, err := s.AnalyzeFile(context.Background(), writeAudio(t, dir, "Wrong - Name.wav.mp3"))
	require.NoError(t, err)

	assert.Equal(t, "Real Artist", res.Identification.Artist)
	assert.Equal(t, "A lyric line that is long enough to keep.", res.Lyrics)
}

func TestAnalyzeFileRejectsUnsupported(t *testing.T) {
	a := &fakeAnalyzer{uploadID: 1, doc: completedDoc()}
	s, _, dir := newTestSession(t, a)

	_, err := s.AnalyzeFile(context.Background(), writeAudio(t, dir, "notes.txt"))
	assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
	assert.Empty(t, a.uploadPaths)
}

func TestAnalyzeFileRecordsFailures(t *testing.T) {
	a := &fakeAnalyzer{uploadID: 8, pollErr: &analysis.AnalysisError{ID: 8, Message: "crashed"}}
	s, _, dir := newTestSession(t, a)

	_, err := s.AnalyzeFile(context.Background(), writeAudio(t, dir, "song.ogg"))
	var aerr *analysis.AnalysisError
	require.ErrorAs(t, err, &aerr)

	history, err := s.History(0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, analysis.StatusError, history[0].Status)
	assert.Contains(t, history[0].Error, "crashed")
}

func TestAnalyzeFileUploadError(t *testing.T) {
	a := &fakeAnalyzer{uploadErr: errors.New("connection refused")}
	s, _, dir := newTestSession(t, a)

	_, err := s.AnalyzeFile(context.Background(), writeAudio(t, dir, "song.mp3"))
	assert.ErrorContains(t, err, "upload failed")
	assert.Zero(t, s.Current().AnalysisID)
}

func TestResolveIdentification(t *testing.T) {
	guess := songmeta.Extract("A - B.mp3")
	empty := songmeta.Extract("   .mp3")
	notIdentified := &analysis.SongIdentification{Identified: false, Source: "shazam"}

	assert.Equal(t, "A", ResolveIdentification(nil, guess).Artist)
	assert.Equal(t, "A", ResolveIdentification(notIdentified, guess).Artist)
	assert.Same(t, notIdentified, ResolveIdentification(notIdentified, empty))
	assert.Nil(t, ResolveIdentification(nil, empty))
}

func TestIdentifyFallsBackOnError(t *testing.T) {
	a := &fakeAnalyzer{identErr: errors.New("backend down")}
	s, _, dir := newTestSession(t, a)

	ident, err := s.Identify(context.Background(), writeAudio(t, dir, "Band_Track.flac"))
	require.NoError(t, err)
	assert.Equal(t, "Band", ident.Artist)
	assert.Equal(t, "Track", ident.Title)

	_, err = s.Identify(context.Background(), writeAudio(t, dir, " .flac"))
	assert.ErrorContains(t, err, "identification failed")
}

func TestExportUsesCurrentThenHistory(t *testing.T) {
	a := &fakeAnalyzer{uploadID: 44, doc: completedDoc()}
	s, _, dir := newTestSession(t, a)

	_, err := s.Export(context.Background(), "json")
	assert.ErrorIs(t, err, ErrNoAnalysis)

	_, err = s.AnalyzeFile(context.Background(), writeAudio(t, dir, "song.mp3"))
	require.NoError(t, err)

	path, err := s.Export(context.Background(), "txt")
	require.NoError(t, err)
	assert.Equal(t, "music_analysis_44.txt", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export of txt", string(data))

	// A new session over the same history picks up the latest analysis.
	s2, err := New(
		WithAnalyzer(a),
		WithDownloader(&fakeDownloader{}),
		WithStore(s.store),
		WithOutputDir(filepath.Join(dir, "out2")),
		WithLogger(logger.New(logger.Config{Output: io.Discard})),
	)
	require.NoError(t, err)
	path, err = s2.Export(context.Background(), "json")
	require.NoError(t, err)
	assert.Equal(t, "music_analysis_44.json", filepath.Base(path))

	_, err = s2.Export(context.Background(), "pdf")
	assert.ErrorIs(t, err, analysis.ErrUnsupportedFormat)
}

func TestSaveLyrics(t *testing.T) {
	a := &fakeAnalyzer{uploadID: 5, doc: completedDoc()}
	s, _, dir := newTestSession(t, a)

	res, err := s.AnalyzeFile(context.Background(), writeAudio(t, dir, "Sigur Rós - Hoppípolla.mp3"))
	require.NoError(t, err)

	path, err := s.SaveLyrics(res)
	require.NoError(t, err)
	assert.Equal(t, "sigur-ros-hoppipolla-lyrics.txt", filepath.Base(path))

	res.Lyrics = ""
	_, err = s.SaveLyrics(res)
	assert.Error(t, err)
}

func TestLyricsLinksUseCurrentGuess(t *testing.T) {
	a := &fakeAnalyzer{identErr: errors.New("down")}
	s, _, dir := newTestSession(t, a)
	_, err := s.Identify(context.Background(), writeAudio(t, dir, "Adele - Hello.mp3"))
	require.NoError(t, err)

	links := s.LyricsLinks(&analysis.SongIdentification{Identified: true, Artist: "unknown", Title: "x"})
	assert.Equal(t, "https://genius.com/search?q=Adele+Hello", links[0].URL)

	links = s.LyricsLinks(&analysis.SongIdentification{Identified: true, Artist: "Queen", Title: "Innuendo"})
	assert.Equal(t, "https://genius.com/search?q=Queen+Innuendo", links[0].URL)
}

func TestFetchVideoRecordsDownload(t *testing.T) {
	s, d, _ := newTestSession(t, &fakeAnalyzer{})

	res, err := s.FetchVideo(context.Background(), " https://youtu.be/dQw4w9WgXcQ ", download.KindAudio, "wav")
	require.NoError(t, err)
	assert.Equal(t, "Song", res.Title)
	assert.Equal(t, "wav", d.lastFormat)

	_, err = s.FetchVideo(context.Background(), "https://youtu.be/dQw4w9WgXcQ", download.KindVideo, "1080p")
	require.NoError(t, err)
	assert.Equal(t, "1080p", d.lastQuality)

	_, err = s.FetchVideo(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "gif", "")
	assert.Error(t, err)

	recs, err := s.DownloadHistory(0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	kinds := []string{recs[0].Kind, recs[1].Kind}
	assert.ElementsMatch(t, []string{"audio", "video"}, kinds)
	for _, r := range recs {
		assert.Equal(t, "dQw4w9WgXcQ", r.VideoID)
	}
}

func TestCheckServicesReportsPerService(t *testing.T) {
	s, _, _ := newTestSession(t, &fakeAnalyzer{})

	st := s.CheckServices(context.Background())
	assert.NoError(t, st.AnalysisErr)
	assert.Error(t, st.DownloadErr)
	assert.Nil(t, st.Download)
}

func TestDownloads(t *testing.T) {
	s, _, _ := newTestSession(t, &fakeAnalyzer{})

	files, err := s.Downloads(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Song.mp3", files[0].Filename)
}

func TestConflicts(t *testing.T) {
	guess := songmeta.Extract("Sigur Ros - Hoppipolla.mp3")

	tests := []struct {
		name    string
		backend *analysis.SongIdentification
		want    bool
	}{
		{"nil backend", nil, false},
		{"not identified", &analysis.SongIdentification{Title: "Other", Artist: "Band"}, false},
		{"accents ignored", &analysis.SongIdentification{Identified: true, Title: "Hoppípolla", Artist: "Sigur Rós"}, false},
		{"extra words", &analysis.SongIdentification{Identified: true, Title: "Hoppipolla (Live)", Artist: "Sigur Ros"}, false},
		{"different song", &analysis.SongIdentification{Identified: true, Title: "Karma Police", Artist: "Radiohead"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conflicts(tt.backend, guess))
		})
	}

	assert.False(t, Conflicts(&analysis.SongIdentification{Identified: true, Title: "X", Artist: "Y"}, songmeta.Extract("   .mp3")))
}

func TestAnalyzeFileFlagsGuessConflict(t *testing.T) {
	doc := completedDoc()
	doc.SongIdentification = &analysis.SongIdentification{Identified: true, Title: "Karma Police", Artist: "Radiohead"}
	s, _, dir := newTestSession(t, &fakeAnalyzer{uploadID: 4, doc: doc})

	res, err := s.AnalyzeFile(context.Background(), writeAudio(t, dir, "Queen - Innuendo.mp3"))
	require.NoError(t, err)
	assert.True(t, res.GuessConflict)
	assert.Equal(t, "Radiohead", res.Identification.Artist)
}
