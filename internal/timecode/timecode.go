// Package timecode converts between SRT timestamps (HH:MM:SS,mmm) and
// millisecond offsets.
package timecode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Hours may have any width; minutes and seconds are two digits but not range
// checked, so "00:75:00,000" is accepted and contributes 75 minutes.
var timestampRe = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2}),(\d{3})$`)

// FormatError reports text that is not a well formed timestamp.
type FormatError struct {
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %s", e.Text, e.Reason)
}

// Parse converts "HH:MM:SS,mmm" to milliseconds.
func Parse(text string) (int64, error) {
	matches := timestampRe.FindStringSubmatch(text)
	if matches == nil {
		reason := "expected HH:MM:SS,mmm"
		if strings.Contains(text, ".") && !strings.Contains(text, ",") {
			reason = "sub-second separator must be ','"
		}
		return 0, &FormatError{Text: text, Reason: reason}
	}

	var parts [4]int64
	for i := range parts {
		v, err := strconv.ParseInt(matches[i+1], 10, 64)
		if err != nil {
			return 0, &FormatError{Text: text, Reason: err.Error()}
		}
		parts[i] = v
	}

	return parts[0]*3600000 + parts[1]*60000 + parts[2]*1000 + parts[3], nil
}

// Format converts milliseconds to "HH:MM:SS,mmm". Negative input is clamped
// to zero.
func Format(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := ms / 60000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// ToVTT rewrites an SRT timestamp with the WebVTT '.' sub-second separator.
func ToVTT(text string) string {
	return strings.Replace(text, ",", ".", 1)
}
