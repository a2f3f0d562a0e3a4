// Package analysis talks to the chord analysis backend.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	DefaultBaseURL      = "http://localhost:3001/api"
	DefaultPollInterval = 5 * time.Second
	DefaultMaxAttempts  = 60

	uploadField = "audio"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrPollTimeout       = errors.New("analysis timed out")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ExportFormats lists the formats the backend can export to.
var ExportFormats = []string{"json", "txt"}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analysis backend returned %d: %s", e.StatusCode, e.Message)
}

// AnalysisError reports an analysis that finished in the error state.
type AnalysisError struct {
	ID      int
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %d failed: %s", e.ID, e.Message)
}

type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	pollInterval time.Duration
	maxAttempts  int
	log          Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = d
	}
}

func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

func WithLogger(l Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		baseURL:      strings.TrimRight(baseURL, "/"),
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		log:          nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach analysis backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp, "health check failed")
	}
	return nil
}

// Upload sends the audio file at path for analysis and returns the
// backend's analysis ID.
func (c *Client) Upload(ctx context.Context, path string) (int, error) {
	var out uploadResponse
	if err := c.postFile(ctx, "/audio/upload", path, "error processing audio", &out); err != nil {
		return 0, err
	}
	if out.AnalysisID == 0 {
		return 0, errors.New("upload response carried no analysis_id")
	}
	c.log.Debugf("uploaded %s as analysis %d", filepath.Base(path), out.AnalysisID)
	return out.AnalysisID, nil
}

// Status fetches the current status document for id.
func (c *Client) Status(ctx context.Context, id int) (*StatusDocument, error) {
	endpoint := c.baseURL + "/audio/" + strconv.Itoa(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analysis %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp, "analysis not found")
	}

	var doc StatusDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode analysis %d: %w", id, err)
	}
	if doc.ID == 0 {
		doc.ID = id
	}
	return &doc, nil
}

// Poll asks for the status of id until it completes or fails, waiting
// the poll interval between attempts. It gives up with ErrPollTimeout
// after the configured number of attempts.
func (c *Client) Poll(ctx context.Context, id int) (*StatusDocument, error) {
	for attempt := 1; ; attempt++ {
		doc, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}

		switch doc.Status {
		case StatusCompleted:
			return doc, nil
		case StatusError:
			msg := doc.Error
			if msg == "" {
				msg = "analysis failed"
			}
			return nil, &AnalysisError{ID: id, Message: msg}
		}

		c.log.Debugf("analysis %d is %q (attempt %d/%d)", id, doc.Status, attempt, c.maxAttempts)
		if attempt >= c.maxAttempts {
			return nil, fmt.Errorf("analysis %d after %d attempts: %w", id, attempt, ErrPollTimeout)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Export downloads the analysis rendered as format.
func (c *Client) Export(ctx context.Context, id int, format string) ([]byte, string, error) {
	if !IsExportFormat(format) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	endpoint := fmt.Sprintf("%s/audio/%d/export?format=%s", c.baseURL, id, url.QueryEscape(format))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export analysis %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeAPIError(resp, "export failed")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read export: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// Identify asks the backend to recognise the song in the audio at path.
func (c *Client) Identify(ctx context.Context, path string) (*SongIdentification, error) {
	var out SongIdentification
	if err := c.postFile(ctx, "/audio/identify", path, "error identifying song", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func IsExportFormat(format string) bool {
	for _, f := range ExportFormats {
		if f == format {
			return true
		}
	}
	return false
}

// postFile streams the file at path as a multipart form and decodes the
// JSON answer into out.
func (c *Client) postFile(ctx context.Context, endpoint, path, fallback string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(uploadField, filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp, fallback)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, fallback string) error {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := fallback
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
		if body.Details != "" {
			msg += ": " + body.Details
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
