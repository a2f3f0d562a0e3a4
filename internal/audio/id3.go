package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// ErrNoTags is returned when a file carries no usable ID3v2 frames.
var ErrNoTags = errors.New("no ID3 tags")

// ReadID3 reads title, artist and album from the ID3v2 header of an MP3
// file without decoding audio.
func ReadID3(path string) (*Metadata, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("reading ID3 tags: %w", err)
	}
	defer tag.Close()

	if !tag.HasFrames() {
		return nil, ErrNoTags
	}

	meta := &Metadata{
		Filename: filepath.Base(path),
		Title:    strings.TrimSpace(tag.Title()),
		Artist:   strings.TrimSpace(tag.Artist()),
		Album:    strings.TrimSpace(tag.Album()),
		Format:   "mp3",
	}
	if meta.Title == "" && meta.Artist == "" {
		return nil, ErrNoTags
	}
	return meta, nil
}
