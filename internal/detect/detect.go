// Package detect identifies which track (and therefore which vendor
// extractor) a raw file belongs to.
package detect

import "strings"

// rule maps identifying substrings to a canonical track name. Rules are
// checked in order; the first hit wins.
type rule struct {
	keywords []string
	track    string
}

// rules is the fixed priority list. Keywords are matched against the
// lowercased concatenation of subject, body and file path.
var rules = []rule{
	{[]string{"fastkart", "elche"}, "Fastkart Elche"},
	{[]string{"gilesias", "gelesias"}, "Racing Center Gilesias"},
	{[]string{"experience factory", "antwerp"}, "Experience Factory Antwerp"},
	{[]string{"voltage"}, "De Voltage"},
	{[]string{"goodwill"}, "Goodwill Karting"},
	{[]string{"lot66", "lot 66"}, "Lot66"},
	{[]string{"berghem", "circuit park"}, "Circuit Park Berghem"},
}

// Track detects the track a piece of text (subject + body + path) belongs
// to. The second return is false when nothing matches; callers must treat
// that as a hard failure and skip the file rather than guess.
func Track(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.track, true
			}
		}
	}
	return "", false
}

// Known reports whether a track name is one the detector can produce.
func Known(track string) bool {
	for _, r := range rules {
		if r.track == track {
			return true
		}
	}
	return false
}
