package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractYouTubeID returns the 11 character video ID in youtubeURL.
func ExtractYouTubeID(youtubeURL string) (string, error) {
	if m := videoIDPattern.FindStringSubmatch(youtubeURL); m != nil {
		return m[1], nil
	}

	u, err := url.Parse(youtubeURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if !IsYouTubeURL(youtubeURL) {
		return "", fmt.Errorf("not a YouTube URL: %s", youtubeURL)
	}
	if strings.HasPrefix(u.Path, "/shorts/") {
		id := strings.TrimPrefix(u.Path, "/shorts/")
		if len(id) == 11 {
			return id, nil
		}
	}

	return "", fmt.Errorf("unable to extract video ID from URL: %s", youtubeURL)
}

// IsVideoURL reports whether rawURL carries a well formed video ID.
func IsVideoURL(rawURL string) bool {
	_, err := ExtractYouTubeID(strings.TrimSpace(rawURL))
	return err == nil
}

func IsYouTubeURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Host)
	return strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be")
}

// WatchURL returns the canonical watch page for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}
