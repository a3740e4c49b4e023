// Package speech prepares reply text for a text-to-speech voice. Identifiers
// and figures that a TTS engine would slur together get spelled out digit by
// digit, and abbreviations that should be read letter by letter get pause
// markers inserted.
package speech

import (
	"regexp"
	"strings"
)

var (
	dateRe     = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	memberIDRe = regexp.MustCompile(`member I\.\.D is (\d+)`)
	groupRe    = regexp.MustCompile(`group number is (\d+)`)
	dollarRe   = regexp.MustCompile(`\$(\d+(?:,\d{3})*(?:\.\d{2})?)`)
	percentRe  = regexp.MustCompile(`(\d+)%`)
)

// Format rewrites text for natural TTS pronunciation:
//
//   - "ID" becomes "I..D" so the letters are spoken separately
//   - slashes in MM/DD/YYYY dates become pauses
//   - member IDs, group numbers, dollar amounts, and percentages are
//     spelled out digit by digit
func Format(text string) string {
	text = strings.ReplaceAll(text, " ID ", " I..D ")
	text = strings.ReplaceAll(text, " id ", " I..D ")
	text = dateRe.ReplaceAllString(text, "$1..$2..$3")
	text = memberIDRe.ReplaceAllStringFunc(text, func(m string) string {
		digits := memberIDRe.FindStringSubmatch(m)[1]
		return "member I..D is " + spaceOut(digits)
	})
	text = groupRe.ReplaceAllStringFunc(text, func(m string) string {
		digits := groupRe.FindStringSubmatch(m)[1]
		return "group number is " + spaceOut(digits)
	})
	text = dollarRe.ReplaceAllStringFunc(text, func(m string) string {
		amount := strings.ReplaceAll(dollarRe.FindStringSubmatch(m)[1], ",", "")
		return "$ " + spaceOut(amount)
	})
	text = percentRe.ReplaceAllStringFunc(text, func(m string) string {
		digits := percentRe.FindStringSubmatch(m)[1]
		return spaceOut(digits) + " percent"
	})
	return text
}

// spaceOut inserts a space between every character so TTS reads each one.
func spaceOut(s string) string {
	parts := make([]string, 0, len(s))
	for _, r := range s {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}
