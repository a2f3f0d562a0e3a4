// Package audio inspects local audio files before they are sent for
// analysis.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/himanishpuri/ChordLens/pkg/songmeta"
	"github.com/himanishpuri/ChordLens/pkg/utils"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
}

// FileInfo summarises a local audio file.
type FileInfo struct {
	Path     string
	Name     string
	Size     int64
	SizeMB   float64
	MIMEType string

	// Set for WAV files only.
	Format   *goaudio.Format
	BitDepth int
	Duration time.Duration

	// Set when ffprobe is available and the file carries tags.
	Tags *Metadata
}

// Preview validates path as a supported audio file and reads what it can
// without decoding samples.
func Preview(path string) (*FileInfo, error) {
	name := filepath.Base(path)
	if !songmeta.IsSupportedAudio(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	info := &FileInfo{
		Path:     path,
		Name:     name,
		Size:     st.Size(),
		SizeMB:   utils.BytesToMB(st.Size()),
		MIMEType: mimeTypes[strings.ToLower(filepath.Ext(name))],
	}

	if info.MIMEType == "audio/wav" {
		if err := readWAVHeader(path, info); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// PreviewWithTags is Preview plus container tags. MP3 files are read for
// ID3 tags first; anything else, or an MP3 without them, goes through
// ffprobe when it is installed. Tag failures are not errors; the file is
// still sent for analysis.
func PreviewWithTags(ctx context.Context, path string) (*FileInfo, error) {
	info, err := Preview(path)
	if err != nil {
		return nil, err
	}
	if info.MIMEType == "audio/mpeg" {
		if meta, err := ReadID3(path); err == nil {
			info.Tags = meta
			return info, nil
		}
	}
	if HasFFprobe() {
		if meta, err := Probe(ctx, path); err == nil {
			info.Tags = meta
		}
	}
	return info, nil
}

func readWAVHeader(path string, info *FileInfo) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return fmt.Errorf("%s: invalid WAV header", info.Name)
	}

	duration, err := decoder.Duration()
	if err != nil {
		return fmt.Errorf("reading WAV duration: %w", err)
	}

	info.Duration = duration
	info.BitDepth = int(decoder.BitDepth)
	info.Format = &goaudio.Format{
		NumChannels: int(decoder.NumChans),
		SampleRate:  int(decoder.SampleRate),
	}
	return nil
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
