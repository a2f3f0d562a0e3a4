// Package lyrics turns raw speech-to-text transcripts into readable verses.
package lyrics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinLineLength is the rune count a fragment must exceed to be kept.
	MinLineLength = 15

	// LinesPerVerse is how many fragments are grouped into one verse.
	LinesPerVerse = 2
)

var labelPattern = regexp.MustCompile(`(?i)^\[(?:transcription|transcripción|transcripcion)\]:`)

// Verse is a group of up to LinesPerVerse trimmed lines.
type Verse []string

func (v Verse) String() string {
	return strings.Join(v, "\n")
}

// StripLabel removes one leading transcription label and trims the rest.
func StripLabel(raw string) string {
	return trim(labelPattern.ReplaceAllString(raw, ""))
}

// Reflow formats a transcript as verses separated by blank lines. When
// no fragment survives filtering the label-stripped text is returned as is.
func Reflow(raw string) string {
	text := StripLabel(raw)
	verses := group(filter(splitFragments(text)))
	if len(verses) == 0 {
		return text
	}

	out := make([]string, len(verses))
	for i, v := range verses {
		out[i] = v.String()
	}
	return strings.Join(out, "\n\n")
}

// Verses returns the verse grouping Reflow would render.
func Verses(raw string) []Verse {
	return group(filter(splitFragments(StripLabel(raw))))
}

// splitFragments breaks text at a whitespace run that either follows
// sentence punctuation, or follows a word character and precedes a
// capitalised word (an uppercase letter then a lowercase one). The
// whitespace itself is dropped.
func splitFragments(text string) []string {
	if text == "" {
		return nil
	}

	var fragments []string
	start := 0
	prev := rune(-1)

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isSpace(r) || prev < 0 || isSpace(prev) {
			prev = r
			i += size
			continue
		}

		end := i
		for end < len(text) {
			sr, ss := utf8.DecodeRuneInString(text[end:])
			if !isSpace(sr) {
				break
			}
			end += ss
		}

		if isSentenceEnd(prev) || (isWordChar(prev) && startsCapitalisedWord(text[end:])) {
			fragments = append(fragments, text[start:i])
			start = end
		}
		prev = ' '
		i = end
	}

	return append(fragments, text[start:])
}

func filter(fragments []string) []string {
	kept := fragments[:0:0]
	for _, f := range fragments {
		if utf8.RuneCountInString(trim(f)) <= MinLineLength {
			continue
		}
		if isLoneCapital(f) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func group(lines []string) []Verse {
	var verses []Verse
	for i := 0; i < len(lines); i += LinesPerVerse {
		end := min(i+LinesPerVerse, len(lines))
		v := make(Verse, 0, end-i)
		for _, l := range lines[i:end] {
			v = append(v, trim(l))
		}
		verses = append(verses, v)
	}
	return verses
}

// isSpace matches the whitespace and line terminators of JavaScript's \s
// and String.prototype.trim. It differs from unicode.IsSpace on U+0085
// (not a space here) and U+FEFF (a space here).
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u00a0', '\ufeff', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// isLoneCapital reports whether s is a single A-Z letter followed only
// by whitespace.
func isLoneCapital(s string) bool {
	return len(s) > 0 && 'A' <= s[0] && s[0] <= 'Z' && trim(s[1:]) == ""
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isWordChar(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func startsCapitalisedWord(s string) bool {
	return len(s) >= 2 && 'A' <= s[0] && s[0] <= 'Z' && 'a' <= s[1] && s[1] <= 'z'
}
