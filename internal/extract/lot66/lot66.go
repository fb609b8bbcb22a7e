// Package lot66 extracts sessions from Lot66 plain-text exports: one
// file per session, three header lines (track, driver, date/time)
// followed by one strict "00:SS.mmm" lap token per line.
package lot66

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/extract"
	"github.com/TheMaksoo/karting/internal/logger"
)

// Ensure Extractor implements the interface.
var _ extract.Extractor = (*Extractor)(nil)

var (
	dateTimeRe = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})\s+At\s+(\d{4})h`)
	lapTokenRe = regexp.MustCompile(`^00:\d{2}\.\d{3}$`)
)

// Extractor handles Lot66 text exports.
type Extractor struct {
	cfg *config.Config
}

// New creates a Lot66 extractor.
func New(cfg *config.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Tracks returns the track names this extractor handles.
func (e *Extractor) Tracks() []string {
	return []string{"Lot66"}
}

// Source returns the data source tag for produced rows.
func (e *Extractor) Source() string {
	return "Lot66 Export"
}

// Extract parses one Lot66 session file.
func (e *Extractor) Extract(_ context.Context, content []byte, path, track string) (*domain.SessionRecord, error) {
	var lines []string
	for _, l := range extract.SplitLines(string(content)) {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: need track, driver and date header lines", domain.ErrStructuralMismatch)
	}

	driver, err := e.matchDriver(lines[1])
	if err != nil {
		return nil, err
	}

	date, clock := parseDateTime(lines[2])

	var laps []float64
	for _, line := range lines[3:] {
		if !lapTokenRe.MatchString(line) {
			continue
		}
		// Drop the fixed "00:" minute prefix; the rest is seconds.
		lap, err := strconv.ParseFloat(line[3:], 64)
		if err != nil {
			logger.Warn("dropping lap token %q: %v", line, err)
			continue
		}
		laps = append(laps, lap)
	}
	if len(laps) == 0 {
		return nil, fmt.Errorf("%w: no lap tokens found", domain.ErrStructuralMismatch)
	}

	best := laps[0]
	for _, t := range laps[1:] {
		if t < best {
			best = t
		}
	}

	return &domain.SessionRecord{
		Track:       track,
		Session:     sessionIndex(path),
		SessionType: "Practice",
		Date:        date,
		Time:        clock,
		Source:      e.Source(),
		Drivers: map[string]*domain.DriverSession{
			driver: {
				Laps:      laps,
				BestTime:  best,
				Position:  1,
				DailyRank: 1,
			},
		},
		Filename: filepath.Base(path),
	}, nil
}

// matchDriver requires the file's driver line to equal one of the
// configured default drivers, case-insensitively. Non-matching files
// are rejected outright, never coerced.
func (e *Extractor) matchDriver(name string) (string, error) {
	for _, d := range e.cfg.DefaultDrivers {
		if strings.EqualFold(name, d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: driver %q is not a configured driver", domain.ErrUnrecognizedFormat, name)
}

// parseDateTime reads the "DD.MM.YYYY At HHMMh" header line.
func parseDateTime(line string) (date, clock string) {
	m := dateTimeRe.FindStringSubmatch(line)
	if m == nil {
		logger.Warn("could not parse date/time line %q", line)
		return "2024-01-01", "00:00"
	}
	return m[3] + "-" + m[2] + "-" + m[1], m[4][:2] + ":" + m[4][2:]
}

// sessionIndex derives a session index from the file name. Files named
// "... copy ..." describe the second session of a set; everything else
// is the first. Kept as a single pluggable rule so a better
// disambiguation can replace it without touching the builder.
func sessionIndex(path string) string {
	if strings.Contains(strings.ToLower(filepath.Base(path)), "copy") {
		return "2"
	}
	return "1"
}
