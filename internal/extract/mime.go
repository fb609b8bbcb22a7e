package extract

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/TheMaksoo/karting/internal/core/domain"
)

// base64PartRe locates the first MIME part flagged base64: everything
// between the transfer-encoding header's blank line and the next
// boundary marker.
var base64PartRe = regexp.MustCompile(`(?s)Content-Transfer-Encoding: base64\s*\r?\n\r?\n(.*?)\r?\n\r?\n?--`)

// headerDateRe matches RFC-822 style email date headers,
// e.g. "Date: Tue, 26 Aug 2025 19:02:11 +0200".
var headerDateRe = regexp.MustCompile(`Date: [^,]+, (\d{1,2}) (\w{3}) (\d{4}) (\d{2}):(\d{2})`)

var monthAbbrev = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04", "May": "05", "Jun": "06",
	"Jul": "07", "Aug": "08", "Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// DecodeBase64Part finds the first base64-encoded MIME part in a raw
// email, strips embedded line breaks and decodes it to UTF-8 text.
func DecodeBase64Part(content string) (string, error) {
	m := base64PartRe.FindStringSubmatch(content)
	if m == nil {
		return "", fmt.Errorf("%w: no base64 content part", domain.ErrStructuralMismatch)
	}
	payload := strings.NewReplacer("\r", "", "\n", "").Replace(m[1])
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64 part: %v", domain.ErrStructuralMismatch, err)
	}
	return string(decoded), nil
}

// HeaderDate extracts session date (ISO) and time (HH:MM) from an email's
// Date header. Returns ok=false when no header is present; callers fall
// back to a default or an in-body date.
func HeaderDate(content string) (date, clock string, ok bool) {
	m := headerDateRe.FindStringSubmatch(content)
	if m == nil {
		return "", "", false
	}
	day, monAbbr, year, hour, minute := m[1], m[2], m[3], m[4], m[5]
	month, known := monthAbbrev[monAbbr]
	if !known {
		month = "01"
	}
	if len(day) == 1 {
		day = "0" + day
	}
	return fmt.Sprintf("%s-%s-%s", year, month, day), hour + ":" + minute, true
}

// SplitLines splits report text into lines with carriage returns removed.
// Vendor emails mix \r\n and \n freely.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
