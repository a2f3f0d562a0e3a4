package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractYouTubeID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?list=PL1&v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/short", "", true},
		{"https://vimeo.com/123456789", "", true},
		{"not a url", "", true},
	}

	for _, tt := range tests {
		got, err := ExtractYouTubeID(tt.url)
		if tt.wantErr {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestIsVideoURL(t *testing.T) {
	assert.True(t, IsVideoURL("  https://youtu.be/dQw4w9WgXcQ "))
	assert.False(t, IsVideoURL("https://www.youtube.com/"))
	assert.False(t, IsVideoURL(""))
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", WatchURL("dQw4w9WgXcQ"))
}

func TestWriteFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := WriteFile(dir, "result.json", []byte(`{"ok":true}`))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestBytesToMB(t *testing.T) {
	assert.Equal(t, 0.0, BytesToMB(0))
	assert.Equal(t, 1.0, BytesToMB(1024*1024))
	assert.Equal(t, 2.5, BytesToMB(5*512*1024))
}
