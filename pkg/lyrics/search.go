package lyrics

import (
	"net/url"
	"strings"
)

// SearchSite is an external page where lyrics for a song can be looked up.
type SearchSite struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SearchLinks builds lyric lookup links for the given song. Blank or
// "unknown" values are replaced with generic placeholders.
func SearchLinks(artist, title string) []SearchSite {
	artist = orPlaceholder(artist, "Unknown Artist")
	title = orPlaceholder(title, "Unknown Song")
	q := url.QueryEscape(artist + " " + title)

	return []SearchSite{
		{Name: "Genius", URL: "https://genius.com/search?q=" + q},
		{Name: "AZLyrics", URL: "https://www.azlyrics.com/"},
		{Name: "Google", URL: "https://www.google.com/search?q=" + q + "+lyrics"},
		{Name: "Letras.com", URL: "https://www.letras.com/"},
	}
}

func orPlaceholder(v, placeholder string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "unknown") {
		return placeholder
	}
	return v
}
