// Package fastkart extracts sessions from Fastkart Elche and Racing
// Center Gilesias timing exports: both are plain-text result sheets
// with a Spanish session header, a driver line and per-lap time rows.
package fastkart

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

var _ extract.Extractor = (*Extractor)(nil)

const (
	trackFastkart = "Fastkart Elche"
	trackGilesias = "Racing Center Gilesias"
)

var (
	sessionRe = regexp.MustCompile(`Sesión\s+(\d+)`)
	dateRe    = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})\s+(\d{2}):(\d{2})`)
	pilotRe   = regexp.MustCompile(`Pilotos?\s*:?\s*(.+)`)

	fastkartKartRe = regexp.MustCompile(`([A-Z]+\s+\d+)`)
	gilesiasKartRe = regexp.MustCompile(`(?i)kart\s+(\d+)`)

	fastkartLapRe = regexp.MustCompile(`(\d+)\s+(\d+):(\d+)\.(\d+)`)
	gilesiasLapRe = regexp.MustCompile(`(?m)^(\d+)\s+(\d+):(\d+)\.(\d+)\s*$`)
)

// screenNames maps timing-system display names to configured drivers.
var screenNames = map[string]string{
	"TheMaksoo": "Max van Lierop",
}

// Extractor handles Fastkart and Gilesias plain-text exports.
type Extractor struct {
	cfg *config.Config
}

// New creates a Fastkart extractor.
func New(cfg *config.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Tracks returns the track names this extractor handles.
func (e *Extractor) Tracks() []string {
	return []string{trackFastkart, trackGilesias}
}

// Source returns the data source tag for produced rows.
func (e *Extractor) Source() string {
	return "Fastkart Timing"
}

// sourceFor picks the per-track source tag.
func sourceFor(track string) string {
	if track == trackGilesias {
		return "Racing Center Timing"
	}
	return "Fastkart Timing"
}

// Extract parses one timing export.
func (e *Extractor) Extract(_ context.Context, content []byte, path, track string) (*domain.SessionRecord, error) {
	text := string(content)

	session := "1"
	if m := sessionRe.FindStringSubmatch(text); m != nil {
		session = m[1]
	}

	date, clock := "2024-01-01", "12:00"
	if m := dateRe.FindStringSubmatch(text); m != nil {
		date = fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
		clock = m[4] + ":" + m[5]
	}

	driver := e.detectDriver(text, track)
	kart := detectKart(text, track)
	laps := parseLaps(text, track)
	if len(laps) == 0 {
		return nil, fmt.Errorf("%w: no lap rows in %s export", domain.ErrStructuralMismatch, track)
	}

	best := laps[0]
	for _, t := range laps[1:] {
		if t < best {
			best = t
		}
	}
	logger.Debug("parsed %d laps for %s at %s, best %.3f", len(laps), driver, track, best)

	return &domain.SessionRecord{
		Track:       track,
		Session:     session,
		SessionType: "Practice",
		Date:        date,
		Time:        clock,
		Source:      sourceFor(track),
		Drivers: map[string]*domain.DriverSession{
			driver: {
				Laps:      laps,
				LapGaps:   make([]float64, len(laps)),
				BestTime:  best,
				Position:  1,
				DailyRank: 1,
				Kart:      kart,
			},
		},
		Filename: filepath.Base(path),
	}, nil
}

// detectDriver resolves the driver line against known screen names,
// then against configured aliases, defaulting to the first configured
// driver.
func (e *Extractor) detectDriver(text, track string) string {
	if m := pilotRe.FindStringSubmatch(text); m != nil {
		line := strings.TrimSpace(m[1])
		for screen, canonical := range screenNames {
			if strings.Contains(line, screen) {
				return canonical
			}
		}
		if canonical, ok := config.MatchAlias(e.cfg.DriverAliases(track), line); ok {
			return canonical
		}
	}
	if len(e.cfg.DefaultDrivers) > 0 {
		return e.cfg.DefaultDrivers[0]
	}
	return "Unknown Driver"
}

// detectKart finds the kart identifier; the two vendors format it
// differently.
func detectKart(text, track string) string {
	if track == trackGilesias {
		if m := gilesiasKartRe.FindStringSubmatch(text); m != nil {
			return "Kart " + m[1]
		}
		return ""
	}
	if m := fastkartKartRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// parseLaps collects lap times in chronological order. Gilesias rows
// are line-anchored; Fastkart rows may share lines with other fields.
func parseLaps(text, track string) []float64 {
	re := fastkartLapRe
	if track == trackGilesias {
		re = gilesiasLapRe
	}
	var laps []float64
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		mins, _ := strconv.Atoi(m[2])
		secs, _ := strconv.Atoi(m[3])
		frac, _ := strconv.ParseFloat("0."+m[4], 64)
		laps = append(laps, float64(mins*60+secs)+frac)
	}
	return laps
}
