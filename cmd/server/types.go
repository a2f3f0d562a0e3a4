package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/ChordLens/internal/audio"
	"github.com/himanishpuri/ChordLens/pkg/lyrics"
	"github.com/himanishpuri/ChordLens/pkg/songmeta"
)

const (
	// MaxFilenamesPerRequest bounds batch metadata guesses.
	MaxFilenamesPerRequest = 500

	// MaxUploadBytes is the largest file accepted by POST /api/preview.
	MaxUploadBytes = 100 << 20

	// MaxTranscriptBytes bounds the reflow request body.
	MaxTranscriptBytes = 1 << 20

	defaultHistoryLimit = 50
)

type endpoint struct {
	Method  string
	Path    string
	Summary string
}

var endpoints = []endpoint{
	{"GET", "/health", "Health check"},
	{"POST", "/api/songmeta", "Guess artist and title from filenames"},
	{"POST", "/api/lyrics/reflow", "Reflow a lyrics transcript into verses"},
	{"GET", "/api/lyrics/search", "Lyric search links for a song"},
	{"POST", "/api/preview", "Inspect an uploaded audio file"},
	{"GET", "/api/history", "List past analyses"},
	{"GET", "/api/history/{id}", "Get an analysis record"},
	{"DELETE", "/api/history/{id}", "Delete an analysis record"},
}

// SongMetaRequest is the request body for POST /api/songmeta. Exactly one
// of Filename and Filenames is expected.
type SongMetaRequest struct {
	Filename  string   `json:"filename,omitempty"`
	Filenames []string `json:"filenames,omitempty"`
}

// Validate checks if the request is valid
func (r *SongMetaRequest) Validate() error {
	switch {
	case r.Filename == "" && len(r.Filenames) == 0:
		return errors.New("filename or filenames is required")
	case r.Filename != "" && len(r.Filenames) > 0:
		return errors.New("use either filename or filenames, not both")
	case len(r.Filenames) > MaxFilenamesPerRequest:
		return fmt.Errorf("too many filenames: %d (maximum: %d)", len(r.Filenames), MaxFilenamesPerRequest)
	}
	return nil
}

// SongMetaDTO pairs a filename with its guess.
type SongMetaDTO struct {
	Filename string `json:"filename"`
	songmeta.FilenameGuess
}

// SongMetaResponse is the response for batch requests.
type SongMetaResponse struct {
	Results []SongMetaDTO `json:"results"`
	Count   int           `json:"count"`
}

// ReflowRequest is the request body for POST /api/lyrics/reflow
type ReflowRequest struct {
	Text string `json:"text"`
}

// ReflowResponse carries the reflowed text and its verses.
type ReflowResponse struct {
	Text   string     `json:"text"`
	Verses [][]string `json:"verses"`
}

func newReflowResponse(raw string) ReflowResponse {
	verses := lyrics.Verses(raw)
	out := ReflowResponse{
		Text:   lyrics.Reflow(raw),
		Verses: make([][]string, len(verses)),
	}
	for i, v := range verses {
		out.Verses[i] = v
	}
	return out
}

// LyricsSearchResponse is the response for GET /api/lyrics/search
type LyricsSearchResponse struct {
	Artist string              `json:"artist"`
	Title  string              `json:"title"`
	Sites  []lyrics.SearchSite `json:"sites"`
}

// PreviewResponse describes an uploaded audio file.
type PreviewResponse struct {
	Filename    string                 `json:"filename"`
	SizeMB      float64                `json:"size_mb"`
	MIMEType    string                 `json:"mime_type"`
	SampleRate  int                    `json:"sample_rate,omitempty"`
	Channels    int                    `json:"channels,omitempty"`
	BitDepth    int                    `json:"bit_depth,omitempty"`
	DurationSec float64                `json:"duration_sec,omitempty"`
	Tags        *audio.Metadata        `json:"tags,omitempty"`
	Guess       songmeta.FilenameGuess `json:"guess"`
}

func newPreviewResponse(filename string, info *audio.FileInfo) PreviewResponse {
	resp := PreviewResponse{
		Filename: filename,
		SizeMB:   info.SizeMB,
		MIMEType: info.MIMEType,
		BitDepth: info.BitDepth,
		Tags:     info.Tags,
		Guess:    songmeta.Extract(filename),
	}
	if info.Format != nil {
		resp.SampleRate = info.Format.SampleRate
		resp.Channels = info.Format.NumChannels
	}
	if info.Duration > 0 {
		resp.DurationSec = info.Duration.Round(time.Millisecond).Seconds()
	}
	return resp
}

// DeleteRecordResponse is the response for DELETE /api/history/{id}
type DeleteRecordResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
