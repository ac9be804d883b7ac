// SPDX-License-Identifier: MIT

package setlist

import (
	"regexp"
	"strings"
)

// anchorPattern matches the first time anchor on a line: H:MM:SS (hours
// 0-23) or M:SS / MM:SS (minutes up to 599, as seen in very long streams
// annotated without an hour part). The leading group keeps the anchor from
// matching inside a longer digit run.
var anchorPattern = regexp.MustCompile(
	`(?:^|[^0-9:])((?:[01]?\d|2[0-3]):[0-5]\d:[0-5]\d|(?:\d{1,2}|[1-5]\d{2}):[0-5]\d)`,
)

// payloadSeparators may appear once between the anchor and the payload.
var payloadSeparators = []string{" ", "-", "–", "—", ":", "：", "・", "･", "）", ")"}

// numberingPattern strips operator numbering like "01.", "(3)", "1)" from
// the front of a payload. Digits followed by non-punctuation (e.g. a song
// title starting with a year) are left alone.
var numberingPattern = regexp.MustCompile(
	`^(?:[(\[（]\s*\d{1,3}\s*[)\]）]|\d{1,3}[.．:：)\]])[.．:：\-]?\s*`,
)

// artistParenPattern captures "song (artist)" payloads (split rule 4).
var artistParenPattern = regexp.MustCompile(`^(.+?)\(([^)]+)\)\s*$`)

// byPattern finds a " by " separator, case-insensitive (split rule 3).
var byPattern = regexp.MustCompile(`(?i)\s+by\s+`)

// Extract parses free text (a description or one comment) into retained
// timestamp lines. Lines without a valid anchor or payload are skipped;
// out-of-order entries are dropped so retained offsets strictly increase.
func Extract(text string) []Line {
	// Comment HTML can sneak in despite requesting plain text.
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var retained []Line
	prev := -1
	for _, raw := range strings.Split(text, "\n") {
		line, ok := parseLine(raw)
		if !ok {
			continue
		}
		if line.OffsetS <= prev {
			// Equal offsets collapse to the first entry; anything
			// below the previous retained offset is out of order.
			// Offsets within 5s are treated as annotation jitter,
			// beyond that as a hard ordering violation; either way
			// the entry is dropped to keep offsets increasing.
			continue
		}
		retained = append(retained, line)
		prev = line.OffsetS
	}
	return retained
}

// parseLine applies anchor detection, payload partition and the
// song/artist split to a single line.
func parseLine(raw string) (Line, bool) {
	m := anchorPattern.FindStringSubmatchIndex(raw)
	if m == nil {
		return Line{}, false
	}
	anchor := raw[m[2]:m[3]]
	offset, err := ParseHMS(anchor)
	if err != nil {
		return Line{}, false
	}

	payload := strings.TrimSpace(raw[m[3]:])
	for _, sep := range payloadSeparators {
		if strings.HasPrefix(payload, sep) {
			payload = strings.TrimSpace(payload[len(sep):])
			break
		}
	}
	payload = strings.TrimSpace(numberingPattern.ReplaceAllString(payload, ""))
	if payload == "" {
		return Line{}, false
	}

	song, artist := splitSongArtist(payload)
	if song == "" {
		return Line{}, false
	}
	return Line{OffsetS: offset, Song: song, Artist: artist, Raw: strings.TrimSpace(raw)}, true
}

// splitSongArtist applies the ordered separator rules; first match wins.
func splitSongArtist(payload string) (song, artist string) {
	// Rule 1: exactly one slash.
	if strings.Count(payload, "/") == 1 {
		left, right, _ := strings.Cut(payload, "/")
		return strings.TrimSpace(left), strings.TrimSpace(right)
	}

	// Rule 2: hyphen with surrounding whitespace.
	if i := strings.Index(payload, " - "); i >= 0 {
		return strings.TrimSpace(payload[:i]), strings.TrimSpace(payload[i+3:])
	}

	// Rule 3: " by ", case-insensitive.
	if loc := byPattern.FindStringIndex(payload); loc != nil {
		return strings.TrimSpace(payload[:loc[0]]), strings.TrimSpace(payload[loc[1]:])
	}

	// Rule 4: trailing parenthesised artist, unless it embeds a timestamp.
	if m := artistParenPattern.FindStringSubmatch(payload); m != nil {
		if !looksLikeTimestamp(m[2]) {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}

	// Rule 5: the whole payload is the song.
	return strings.TrimSpace(payload), ""
}

func looksLikeTimestamp(s string) bool {
	return anchorPattern.MatchString(s)
}

// countAnchors reports how many lines of text contain a time anchor,
// used by the confidence scorer's comment-corpus signal.
func countAnchors(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if anchorPattern.MatchString(line) {
			n++
		}
	}
	return n
}

// AnchorLineCount counts lines containing a valid time anchor across the
// given texts.
func AnchorLineCount(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += countAnchors(strings.ReplaceAll(t, "\r\n", "\n"))
	}
	return total
}
