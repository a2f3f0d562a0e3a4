package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/ChordLens/internal/audio"
	"github.com/himanishpuri/ChordLens/internal/storage"
	"github.com/himanishpuri/ChordLens/pkg/logger"
	"github.com/himanishpuri/ChordLens/pkg/lyrics"
	"github.com/himanishpuri/ChordLens/pkg/songmeta"
	jsoniter "github.com/json-iterator/go"
	"github.com/thanhpk/randstr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// History is the part of the storage layer the server reads from.
type History interface {
	GetAnalysis(id string) (*storage.AnalysisRecord, error)
	ListAnalyses(limit int) ([]storage.AnalysisRecord, error)
	DeleteAnalysis(id string) error
}

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	history History
	config  *ServerConfig
	log     *logger.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	AllowedOrigins []string
	LogRequests    bool
}

// NewServer creates a new server instance
func NewServer(history History, config *ServerConfig) *Server {
	return &Server{
		history: history,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// allowMethod rejects requests whose method is not one of methods.
func (s *Server) allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	s.respondError(w, http.StatusMethodNotAllowed, fmt.Sprintf("%s not allowed", r.Method))
	return false
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	routes := make(map[string]string, len(endpoints))
	for _, e := range endpoints {
		routes[e.Method+" "+e.Path] = e.Summary
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "ChordLens helper API",
		"version":   "1.0.0",
		"endpoints": routes,
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleSongMeta handles POST /api/songmeta
func (s *Server) handleSongMeta(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}

	var req SongMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warnf("Failed to decode songmeta request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Filename != "" {
		s.respondJSON(w, http.StatusOK, SongMetaDTO{
			Filename:      req.Filename,
			FilenameGuess: songmeta.Extract(req.Filename),
		})
		return
	}

	results := make([]SongMetaDTO, len(req.Filenames))
	for i, name := range req.Filenames {
		results[i] = SongMetaDTO{Filename: name, FilenameGuess: songmeta.Extract(name)}
	}
	s.respondJSON(w, http.StatusOK, SongMetaResponse{Results: results, Count: len(results)})
}

// handleReflow handles POST /api/lyrics/reflow
func (s *Server) handleReflow(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}

	var req ReflowRequest
	body := http.MaxBytesReader(w, r.Body, MaxTranscriptBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.log.Warnf("Failed to decode reflow request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.respondJSON(w, http.StatusOK, newReflowResponse(req.Text))
}

// handleLyricsSearch handles GET /api/lyrics/search?artist=&title=
func (s *Server) handleLyricsSearch(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	artist, title := q.Get("artist"), q.Get("title")
	s.respondJSON(w, http.StatusOK, LyricsSearchResponse{
		Artist: artist,
		Title:  title,
		Sites:  lyrics.SearchLinks(artist, title),
	})
}

// handlePreview handles POST /api/preview (multipart file upload)
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !songmeta.IsSupportedAudio(name) {
		s.respondError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported file type, expected one of: %s", strings.Join(songmeta.SupportedExtensions, ", ")))
		return
	}

	// Keep the uploaded name as a suffix so the extension survives.
	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("upload_%s_%s", randstr.Hex(8), name))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	info, err := audio.PreviewWithTags(ctx, tempFile)
	if err != nil {
		s.log.Warnf("Preview of %s failed: %v", name, err)
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, newPreviewResponse(name, info))
}

// handleHistory handles GET /api/history?limit=
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.history.ListAnalyses(limit)
	if err != nil {
		s.log.Errorf("Failed to list analyses: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}
	if recs == nil {
		recs = []storage.AnalysisRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": recs,
		"count":    len(recs),
	})
}

// handleHistoryRecord handles GET and DELETE /api/history/{id}
func (s *Server) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/history/"), "/")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "record id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.history.GetAnalysis(id)
		if err != nil {
			s.respondStoreError(w, id, err)
			return
		}
		s.respondJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := s.history.DeleteAnalysis(id); err != nil {
			s.respondStoreError(w, id, err)
			return
		}
		s.log.Infof("Deleted analysis record %s", id)
		s.respondJSON(w, http.StatusOK, DeleteRecordResponse{Message: "Record deleted", ID: id})
	default:
		s.allowMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) respondStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Record %s not found", id))
		return
	}
	s.log.Errorf("History lookup for %s failed: %v", id, err)
	s.respondError(w, http.StatusInternalServerError, "Failed to access history")
}
