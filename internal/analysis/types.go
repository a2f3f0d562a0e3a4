package analysis

import "time"

// Backend analysis states.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// TimelineEntry is one detected chord. Time is the backend's display
// position, e.g. "0:15".
type TimelineEntry struct {
	Time       string  `json:"time"`
	Chord      string  `json:"chord"`
	Confidence float64 `json:"confidence"`
}

type MusicLinks struct {
	YouTube    string `json:"youtube,omitempty"`
	Spotify    string `json:"spotify,omitempty"`
	AppleMusic string `json:"apple_music,omitempty"`
	Deezer     string `json:"deezer,omitempty"`
}

// SongIdentification is the backend's opinion of which song was analysed.
type SongIdentification struct {
	Identified      bool           `json:"identified"`
	Title           string         `json:"title,omitempty"`
	Artist          string         `json:"artist,omitempty"`
	Album           string         `json:"album,omitempty"`
	Confidence      float64        `json:"confidence"`
	Source          string         `json:"source,omitempty"`
	Lyrics          string         `json:"lyrics,omitempty"`
	MusicLinks      *MusicLinks    `json:"music_links,omitempty"`
	Characteristics map[string]any `json:"characteristics,omitempty"`
}

type HarmonicAnalysis struct {
	TotalChords      int      `json:"total_chords"`
	UniqueChords     int      `json:"unique_chords"`
	ChordVariety     float64  `json:"chord_variety"`
	DetectedPatterns []string `json:"detected_patterns"`
	MostCommonChord  string   `json:"most_common_chord"`
	HarmonicRhythm   string   `json:"harmonic_rhythm"`
}

// StatusDocument is what the backend returns while and after analysing.
type StatusDocument struct {
	ID                     int                 `json:"id"`
	Status                 string              `json:"status"`
	Error                  string              `json:"error,omitempty"`
	Key                    string              `json:"key"`
	KeyConfidence          float64             `json:"key_confidence"`
	BPM                    float64             `json:"bpm"`
	TempoClassification    string              `json:"tempo_classification"`
	Progression            []string            `json:"progression"`
	Timeline               []TimelineEntry     `json:"timeline"`
	Notes                  []string            `json:"notes"`
	Lyrics                 string              `json:"lyrics"`
	Duration               float64             `json:"duration"`
	ChordCount             int                 `json:"chord_count"`
	AverageChordConfidence float64             `json:"average_chord_confidence"`
	SongIdentification     *SongIdentification `json:"song_identification,omitempty"`
	HarmonicAnalysis       *HarmonicAnalysis   `json:"harmonic_analysis,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
}

type uploadResponse struct {
	AnalysisID int    `json:"analysis_id"`
	Message    string `json:"message"`
}
