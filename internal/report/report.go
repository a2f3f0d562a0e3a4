// Package report renders analysis results as terminal text.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/himanishpuri/ChordLens/internal/analysis"
	"github.com/himanishpuri/ChordLens/internal/audio"
	"github.com/himanishpuri/ChordLens/internal/download"
	"github.com/himanishpuri/ChordLens/pkg/lyrics"
	"github.com/himanishpuri/ChordLens/pkg/songmeta"
)

// TimelinePreview is how many timeline entries the summary shows.
const TimelinePreview = 10

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.Bold)
	muted   = color.New(color.FgHiBlack)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

// Analysis writes the full result card for a completed analysis. ident may
// be nil. verses are printed under a lyrics heading when present.
func Analysis(w io.Writer, doc *analysis.StatusDocument, ident *analysis.SongIdentification, verses []lyrics.Verse) {
	heading.Fprintf(w, "Analysis #%d\n", doc.ID)
	field(w, "Key", orDash(doc.Key))
	if doc.KeyConfidence > 0 {
		field(w, "Key confidence", percent(doc.KeyConfidence))
	}
	field(w, "BPM", bpm(doc.BPM, doc.TempoClassification))
	field(w, "Duration", audio.FormatDuration(doc.Duration))
	field(w, "Progression", joinOrDash(doc.Progression, " - "))
	field(w, "Notes", joinOrDash(doc.Notes, ", "))

	fmt.Fprintln(w)
	timeline(w, doc.Timeline, TimelinePreview)

	if h := doc.HarmonicAnalysis; h != nil {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Harmony")
		field(w, "Total chords", fmt.Sprint(h.TotalChords))
		field(w, "Unique chords", fmt.Sprint(h.UniqueChords))
		field(w, "Most common", orDash(h.MostCommonChord))
		if h.HarmonicRhythm != "" {
			field(w, "Harmonic rhythm", h.HarmonicRhythm)
		}
		if len(h.DetectedPatterns) > 0 {
			field(w, "Patterns", strings.Join(h.DetectedPatterns, ", "))
		}
	}

	fmt.Fprintln(w)
	Identification(w, ident)

	if len(verses) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Lyrics")
		for i, v := range verses {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, v.String())
		}
	}
}

// Timeline writes every timeline entry.
func Timeline(w io.Writer, entries []analysis.TimelineEntry) {
	timeline(w, entries, len(entries))
}

func timeline(w io.Writer, entries []analysis.TimelineEntry, limit int) {
	heading.Fprintln(w, "Timeline")
	if len(entries) == 0 {
		muted.Fprintln(w, "  no chords detected")
		return
	}
	for i, e := range entries {
		if i == limit {
			muted.Fprintf(w, "  ... and %d more chords\n", len(entries)-limit)
			break
		}
		line := fmt.Sprintf("  %6s  %-6s", e.Time, e.Chord)
		if e.Confidence > 0 {
			line += "  " + percent(e.Confidence)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// Identification writes who the song was attributed to and by what means.
func Identification(w io.Writer, ident *analysis.SongIdentification) {
	heading.Fprintln(w, "Song")
	if ident == nil || !ident.Identified {
		warn.Fprintln(w, "  Song not identified. Try a cleaner recording.")
		return
	}

	field(w, "Title", orDash(ident.Title))
	field(w, "Artist", orDash(ident.Artist))
	if ident.Album != "" {
		field(w, "Album", ident.Album)
	}
	field(w, "Confidence", percent(ident.Confidence))
	if ident.Source == songmeta.SourceFilename {
		muted.Fprintln(w, "  (from filename)")
	} else {
		good.Fprintln(w, "  (from audio analysis)")
	}

	if l := ident.MusicLinks; l != nil {
		for _, link := range []struct{ name, url string }{
			{"YouTube", l.YouTube},
			{"Spotify", l.Spotify},
			{"Apple Music", l.AppleMusic},
			{"Deezer", l.Deezer},
		} {
			if link.url != "" {
				field(w, link.name, link.url)
			}
		}
	}
}

// Guess writes a filename guess on one line.
func Guess(w io.Writer, filename string, g songmeta.FilenameGuess) {
	status := good.Sprint("identified")
	if !g.Identified {
		status = warn.Sprint("empty")
	}
	fmt.Fprintf(w, "%s\n  artist: %s\n  title:  %s\n  %s, confidence %s\n",
		label.Sprint(filename), g.Artist, orDash(g.Title), status, percent(g.Confidence))
}

// Preview writes what is known about a local file before upload.
func Preview(w io.Writer, info *audio.FileInfo) {
	heading.Fprintln(w, info.Name)
	field(w, "Size", fmt.Sprintf("%.2f MB", info.SizeMB))
	field(w, "Type", orDash(info.MIMEType))
	if info.Format != nil {
		field(w, "Duration", audio.FormatDuration(info.Duration.Seconds()))
		field(w, "Format", fmt.Sprintf("%d Hz, %d ch, %d bit", info.Format.SampleRate, info.Format.NumChannels, info.BitDepth))
	}
	if t := info.Tags; t != nil && (t.Title != "" || t.Artist != "") {
		field(w, "Tags", strings.Trim(t.Artist+" - "+t.Title, " -"))
	}
}

// VideoInfo writes a video preview from the download service.
func VideoInfo(w io.Writer, info *download.VideoInfo) {
	heading.Fprintln(w, info.Title)
	field(w, "Uploader", orDash(info.Uploader))
	field(w, "Duration", orDash(info.DurationFormatted))
	field(w, "Views", orDash(info.ViewCountFormatted))
	field(w, "Uploaded", orDash(info.UploadDateFormatted))
}

// Download writes the outcome of a finished download.
func Download(w io.Writer, res *download.DownloadResult) {
	good.Fprintf(w, "Downloaded %s\n", res.Title)
	field(w, "Artist", orDash(res.Artist))
	field(w, "Format", orDash(res.Format))
	if res.Quality != "" {
		field(w, "Quality", res.Quality)
	}
	field(w, "Size", fmt.Sprintf("%.2f MB", float64(res.FileSize)/(1024*1024)))
	field(w, "Path", orDash(res.FilePath))
	if res.DownloadTime > 0 {
		field(w, "Took", fmt.Sprintf("%.1fs", res.DownloadTime))
	}
}

// SearchLinks writes lyric lookup links.
func SearchLinks(w io.Writer, links []lyrics.SearchSite) {
	heading.Fprintln(w, "Lyrics search")
	for _, l := range links {
		field(w, l.Name, l.URL)
	}
}

func field(w io.Writer, name, value string) {
	fmt.Fprintf(w, "  %s %s\n", label.Sprintf("%-15s", name+":"), value)
}

func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

func bpm(v float64, class string) string {
	if v <= 0 {
		return "-"
	}
	s := fmt.Sprintf("%.0f", v)
	if class != "" {
		s += " (" + class + ")"
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinOrDash(items []string, sep string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, sep)
}
