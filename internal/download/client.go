// Package download is a client for the companion service that fetches
// audio and video from YouTube.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/himanishpuri/ChordLens/pkg/utils"
	jsoniter "github.com/json-iterator/go"
)

const DefaultBaseURL = "http://localhost:5005"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrInvalidURL    = errors.New("invalid YouTube URL")
	ErrInvalidFormat = errors.New("unsupported audio format")
)

// ServiceError is a failure reported by the download service itself.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("download service returned %d", e.StatusCode)
	}
	return e.Message
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		// Downloads can take minutes for long videos.
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach download service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{StatusCode: resp.StatusCode}
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode health: %w", err)
	}
	return &status, nil
}

// Info previews a video without downloading it.
func (c *Client) Info(ctx context.Context, videoURL string) (*VideoInfo, error) {
	videoURL, err := validURL(videoURL)
	if err != nil {
		return nil, err
	}
	var info VideoInfo
	if err := c.post(ctx, "/api/audio/youtube-info", infoRequest{URL: videoURL}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DownloadAudio extracts the audio track of a video as format.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, format string) (*DownloadResult, error) {
	videoURL, err := validURL(videoURL)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = DefaultAudioFormat
	}
	if !IsAudioFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	var res DownloadResult
	if err := c.post(ctx, "/api/audio/youtube-download", audioRequest{URL: videoURL, Format: format}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DownloadVideo fetches the full video at the given quality, e.g. "720p".
func (c *Client) DownloadVideo(ctx context.Context, videoURL, quality string) (*DownloadResult, error) {
	videoURL, err := validURL(videoURL)
	if err != nil {
		return nil, err
	}
	if quality == "" {
		quality = DefaultVideoQuality
	}

	var res DownloadResult
	if err := c.post(ctx, "/api/audio/youtube-video", videoRequest{URL: videoURL, Quality: quality}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns the files currently held by the service.
func (c *Client) List(ctx context.Context) (*DownloadListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/downloads", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var listing DownloadListing
	if err := c.do(req, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func IsAudioFormat(format string) bool {
	for _, f := range AudioFormats {
		if f == format {
			return true
		}
	}
	return false
}

func validURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !utils.IsVideoURL(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return raw, nil
}

type outcome interface {
	failed() (bool, string)
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out outcome) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out outcome) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach download service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode >= 300 {
			return &ServiceError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if failed, msg := out.failed(); failed || resp.StatusCode >= 300 {
		return &ServiceError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// Explain turns a client error into a message fit for an end user.
func Explain(err error) string {
	if err == nil {
		return ""
	}

	var svcErr *ServiceError
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "Download service is not running. Start it and try again."
	case errors.Is(err, ErrInvalidURL):
		return "That does not look like a valid YouTube URL."
	case errors.As(err, &svcErr):
		switch {
		case strings.Contains(svcErr.Message, "Video unavailable"):
			return "The video is unavailable. It may be private, deleted or blocked in your region."
		case strings.Contains(svcErr.Message, "Sign in to confirm"):
			return "The video requires age verification and cannot be downloaded."
		}
	}
	return err.Error()
}
