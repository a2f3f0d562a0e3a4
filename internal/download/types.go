package download

import "time"

const (
	KindAudio = "audio"
	KindVideo = "video"

	DefaultAudioFormat  = "mp3"
	DefaultVideoQuality = "720p"
)

// AudioFormats are the formats the service can transcode audio to.
var AudioFormats = []string{"mp3", "wav", "m4a", "flac", "webm", "ogg"}

type HealthStatus struct {
	Status           string `json:"status"`
	YouTubeAvailable bool   `json:"youtube_available"`
	Message          string `json:"message,omitempty"`
}

// Envelope is embedded by every payload that reports success.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (e Envelope) failed() (bool, string) {
	return !e.Success, e.Error
}

type VideoInfo struct {
	Envelope
	Title               string  `json:"title"`
	Uploader            string  `json:"uploader"`
	Duration            float64 `json:"duration"`
	DurationFormatted   string  `json:"duration_formatted"`
	ViewCount           int64   `json:"view_count"`
	ViewCountFormatted  string  `json:"view_count_formatted"`
	UploadDateFormatted string  `json:"upload_date_formatted"`
	Thumbnail           string  `json:"thumbnail"`
	Description         string  `json:"description"`
}

type DownloadResult struct {
	Envelope
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Duration     float64 `json:"duration"`
	Format       string  `json:"format"`
	FileSize     int64   `json:"file_size"`
	FilePath     string  `json:"file_path"`
	DownloadTime float64 `json:"download_time"`
	ViewCount    int64   `json:"view_count"`
	UploadDate   string  `json:"upload_date"`
	Quality      string  `json:"quality"`
}

// DownloadedFile is an entry of the service's download directory.
// Created and Modified are Unix timestamps in seconds.
type DownloadedFile struct {
	Filename string  `json:"filename"`
	Size     int64   `json:"size"`
	SizeMB   float64 `json:"size_mb"`
	Created  float64 `json:"created"`
	Modified float64 `json:"modified"`
}

func (f DownloadedFile) ModifiedTime() time.Time {
	sec := int64(f.Modified)
	return time.Unix(sec, int64((f.Modified-float64(sec))*1e9))
}

type DownloadListing struct {
	Envelope
	Downloads []DownloadedFile `json:"downloads"`
	Total     int              `json:"total"`
}

type infoRequest struct {
	URL string `json:"url"`
}

type audioRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

type videoRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
}
