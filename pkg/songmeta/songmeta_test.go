package songmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     FilenameGuess
	}{
		{
			name:     "hyphen separator",
			filename: "Queen - Bohemian Rhapsody.mp3",
			want:     FilenameGuess{"Queen", "Bohemian Rhapsody", true, 0.95, "filename"},
		},
		{
			name:     "first hyphen splits",
			filename: "A - B - C",
			want:     FilenameGuess{"A", "B - C", true, 0.95, "filename"},
		},
		{
			name:     "en dash",
			filename: "Artist – Song.flac",
			want:     FilenameGuess{"Artist", "Song", true, 0.95, "filename"},
		},
		{
			name:     "underscore",
			filename: "unknown_song.ogg",
			want:     FilenameGuess{"unknown", "song", true, 0.95, "filename"},
		},
		{
			name:     "pipe",
			filename: "Band | Track.webm",
			want:     FilenameGuess{"Band", "Track", true, 0.95, "filename"},
		},
		{
			name:     "hyphen beats underscore",
			filename: "my_band - the_song.wav",
			want:     FilenameGuess{"my_band", "the_song", true, 0.95, "filename"},
		},
		{
			name:     "no separator",
			filename: "NoSeparatorHere.wav",
			want:     FilenameGuess{"unknown", "NoSeparatorHere", true, 0.7, "filename"},
		},
		{
			name:     "uppercase extension",
			filename: "Song.MP3",
			want:     FilenameGuess{"unknown", "Song", true, 0.7, "filename"},
		},
		{
			name:     "unsupported extension kept",
			filename: "Track.aiff",
			want:     FilenameGuess{"unknown", "Track.aiff", true, 0.7, "filename"},
		},
		{
			name:     "blank name",
			filename: "   .mp3",
			want:     FilenameGuess{"unknown", "", false, 0.7, "filename"},
		},
		{
			name:     "empty",
			filename: "",
			want:     FilenameGuess{"unknown", "", false, 0.7, "filename"},
		},
		{
			name:     "leading hyphen has no left group",
			filename: "-Intro",
			want:     FilenameGuess{"unknown", "-Intro", true, 0.7, "filename"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.filename))
		})
	}
}

func TestExtractNewlineDefeatsSeparator(t *testing.T) {
	got := Extract("A\nB - C")
	assert.Equal(t, UnknownArtist, got.Artist)
	assert.Equal(t, "A\nB - C", got.Title)
	assert.Equal(t, ConfidenceFallback, got.Confidence)
}

func TestExtractOnlyStripsOneExtension(t *testing.T) {
	assert.Equal(t, "mix.mp3", StripAudioExtension("mix.mp3.wav"))
}

func TestIsSupportedAudio(t *testing.T) {
	for _, ext := range SupportedExtensions {
		assert.True(t, IsSupportedAudio("file."+ext), ext)
	}
	assert.True(t, IsSupportedAudio("FILE.M4A"))
	assert.False(t, IsSupportedAudio("notes.txt"))
	assert.False(t, IsSupportedAudio("mp3"))
}
