// Package songmeta guesses song metadata from audio filenames.
package songmeta

import (
	"regexp"
	"strings"
)

const (
	// UnknownArtist is reported when no separator splits the name.
	UnknownArtist = "unknown"

	// SourceFilename marks a guess derived from a filename.
	SourceFilename = "filename"

	ConfidenceMatched  = 0.95
	ConfidenceFallback = 0.7
)

// SupportedExtensions lists the audio extensions stripped before matching.
var SupportedExtensions = []string{"mp3", "wav", "m4a", "flac", "webm", "ogg"}

var audioExtPattern = regexp.MustCompile(`(?i)\.(mp3|wav|m4a|flac|webm|ogg)$`)

// Tried in order; the first match wins. The left group is lazy so the
// split happens at the first separator.
var separatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s*-\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*–\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*_\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*\|\s*(.+)$`),
}

// FilenameGuess is the metadata inferred from a single filename.
type FilenameGuess struct {
	Artist     string  `json:"artist"`
	Title      string  `json:"title"`
	Identified bool    `json:"identified"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Extract infers artist and title from filename. It never fails: names
// without a recognised separator yield UnknownArtist and the whole
// trimmed name as title.
func Extract(filename string) FilenameGuess {
	name := StripAudioExtension(filename)

	for _, pattern := range separatorPatterns {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		return FilenameGuess{
			Artist:     strings.TrimSpace(m[1]),
			Title:      strings.TrimSpace(m[2]),
			Identified: true,
			Confidence: ConfidenceMatched,
			Source:     SourceFilename,
		}
	}

	title := strings.TrimSpace(name)
	return FilenameGuess{
		Artist:     UnknownArtist,
		Title:      title,
		Identified: title != "",
		Confidence: ConfidenceFallback,
		Source:     SourceFilename,
	}
}

// StripAudioExtension removes one trailing supported audio extension.
func StripAudioExtension(filename string) string {
	return audioExtPattern.ReplaceAllString(filename, "")
}

// IsSupportedAudio reports whether filename ends in a supported extension.
func IsSupportedAudio(filename string) bool {
	return audioExtPattern.MatchString(filename)
}
