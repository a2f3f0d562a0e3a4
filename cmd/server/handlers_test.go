package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/himanishpuri/ChordLens/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *storage.DBClient) {
	t.Helper()
	db, err := storage.NewDBClientWithPath(filepath.Join(t.TempDir(), "history.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewServer(db, &ServerConfig{
		TempDir:        t.TempDir(),
		AllowedOrigins: []string{"*"},
	}), db
}

func do(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestSongMetaSingle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/songmeta", `{"filename":"Radiohead – Karma Police.flac"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got SongMetaDTO
	decode(t, rec, &got)
	assert.Equal(t, "Radiohead", got.Artist)
	assert.Equal(t, "Karma Police", got.Title)
	assert.True(t, got.Identified)
	assert.Equal(t, 0.95, got.Confidence)
}

func TestSongMetaBatch(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/songmeta", `{"filenames":["A - B.mp3","justatitle.ogg"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got SongMetaResponse
	decode(t, rec, &got)
	require.Equal(t, 2, got.Count)
	assert.Equal(t, "A", got.Results[0].Artist)
	assert.Equal(t, "unknown", got.Results[1].Artist)
	assert.Equal(t, "justatitle", got.Results[1].Title)
}

func TestSongMetaValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"both", `{"filename":"a","filenames":["b"]}`},
		{"malformed", `{"filename":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/songmeta", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := do(t, s, http.MethodGet, "/api/songmeta", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}

func TestReflowEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"text":"[transcription]: One line that is long enough. Two lines that are long enough. Three lines that are long enough."}`
	rec := do(t, s, http.MethodPost, "/api/lyrics/reflow", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var got ReflowResponse
	decode(t, rec, &got)
	assert.Equal(t, "One line that is long enough.\nTwo lines that are long enough.\n\nThree lines that are long enough.", got.Text)
	require.Len(t, got.Verses, 2)
	assert.Len(t, got.Verses[0], 2)
	assert.Len(t, got.Verses[1], 1)
}

func TestLyricsSearchEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/lyrics/search?artist=unknown&title=Yellow", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got LyricsSearchResponse
	decode(t, rec, &got)
	require.NotEmpty(t, got.Sites)
	assert.Equal(t, "Genius", got.Sites[0].Name)
	assert.Contains(t, got.Sites[0].URL, "Unknown+Artist+Yellow")
}

func TestHistoryEndpoints(t *testing.T) {
	s, db := newTestServer(t)

	rec := &storage.AnalysisRecord{RemoteID: 3, Artist: "Björk", Title: "Jóga", Key: "E", Status: "completed"}
	require.NoError(t, db.SaveAnalysis(rec))

	list := do(t, s, http.MethodGet, "/api/history?limit=5", "")
	require.Equal(t, http.StatusOK, list.Code)
	var listed struct {
		Analyses []storage.AnalysisRecord `json:"analyses"`
		Count    int                      `json:"count"`
	}
	decode(t, list, &listed)
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, "Jóga", listed.Analyses[0].Title)

	get := do(t, s, http.MethodGet, "/api/history/"+rec.ID, "")
	require.Equal(t, http.StatusOK, get.Code)
	var got storage.AnalysisRecord
	decode(t, get, &got)
	assert.Equal(t, 3, got.RemoteID)

	del := do(t, s, http.MethodDelete, "/api/history/"+rec.ID, "")
	assert.Equal(t, http.StatusOK, del.Code)

	missing := do(t, s, http.MethodGet, "/api/history/"+rec.ID, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	bad := do(t, s, http.MethodGet, "/api/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

// silentWAV encodes seconds of 16-bit mono silence.
func silentWAV(t *testing.T, rate int, seconds int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silence.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, rate*seconds),
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPreviewEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, uploadRequest(t, "Nina Simone - Sinnerman.wav", silentWAV(t, 8000, 2)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got PreviewResponse
	decode(t, rec, &got)
	assert.Equal(t, "audio/wav", got.MIMEType)
	assert.Equal(t, 8000, got.SampleRate)
	assert.Equal(t, 1, got.Channels)
	assert.Equal(t, 16, got.BitDepth)
	assert.InDelta(t, 2.0, got.DurationSec, 0.01)
	assert.Equal(t, "Nina Simone", got.Guess.Artist)
	assert.Equal(t, "Sinnerman", got.Guess.Title)
}

func TestPreviewRejectsUnsupportedType(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("hello")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	s.config.AllowedOrigins = []string{"http://localhost:3000"}

	req := httptest.NewRequest(http.MethodOptions, "/api/songmeta", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseOrigins("*"))
	assert.Equal(t, []string{"http://a", "http://b"}, parseOrigins("http://a, http://b"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", getClientIP(req))
}
