// Package smstiming extracts sessions from SMS-Timing style result
// emails: RFC-822 headers, a base64-encoded report body with a
// positional standings table, and a vendor-specific detailed lap table.
// It covers three track variants: De Voltage (SS.sss column table),
// Circuit Park Berghem (MM:SS.sss column table) and Goodwill Karting
// (per-driver lap sections with gap data).
package smstiming

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/extract"
	"github.com/TheMaksoo/karting/internal/logger"
	"github.com/TheMaksoo/karting/internal/timing"
)

// Ensure Extractor implements the interface.
var _ extract.Extractor = (*Extractor)(nil)

const (
	trackVoltage  = "De Voltage"
	trackBerghem  = "Circuit Park Berghem"
	trackGoodwill = "Goodwill Karting"
)

// goodwillFallbackDriver receives Goodwill sessions whose file name
// carries no driver hint.
const goodwillFallbackDriver = "Quinten van Wesel"

// sessionNamePatterns are tried in priority order against the file path
// to find the vendor's session number.
var sessionNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Sessie (\d+)`),
	regexp.MustCompile(`Results - (\d+) - Heat`),
}

var (
	anyNumberRe     = regexp.MustCompile(`(\d+)`)
	bodySessionRe   = regexp.MustCompile(`Sessie (\d+) - (\d{2}/\d{2}/\d{4}) om (\d{2}:\d{2})`)
	standingRowRe   = regexp.MustCompile(`^\d+\.\s+`)
	lapRowRe        = regexp.MustCompile(`^\d+\s+`)
	goodwillLapRe   = regexp.MustCompile(`^\d+\s+\d+\.\d+`)
	goodwillBlockRe = regexp.MustCompile(`(?s)Overzicht van je rondetijden.*?\nRonde\s+Tijd\s+Afstand\s*\n(.*?)(?:\nJe laatste|\n\n|$)`)
	columnSplitRe   = regexp.MustCompile(`\s{2,}`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Extractor handles the SMS-Timing email family.
type Extractor struct {
	cfg *config.Config
	now func() time.Time
}

// New creates an SMS-Timing extractor.
func New(cfg *config.Config) *Extractor {
	return &Extractor{cfg: cfg, now: time.Now}
}

// Tracks returns the track names this extractor handles.
func (e *Extractor) Tracks() []string {
	return []string{trackVoltage, trackBerghem, trackGoodwill}
}

// Source returns the data source tag for produced rows.
func (e *Extractor) Source() string {
	return "SMS Timing"
}

// Extract parses one SMS-Timing result email.
func (e *Extractor) Extract(_ context.Context, content []byte, path, track string) (*domain.SessionRecord, error) {
	raw := string(content)

	session := sessionFromPath(path)

	date, clock, ok := extract.HeaderDate(raw)
	if !ok {
		date = e.now().Format("2006-01-02")
		clock = "12:00"
	}

	decoded, err := extract.DecodeBase64Part(raw)
	if err != nil {
		return nil, err
	}

	// A more specific in-body session line overrides the header date.
	if m := bodySessionRe.FindStringSubmatch(decoded); m != nil {
		session = m[1]
		if d := strings.Split(m[2], "/"); len(d) == 3 {
			date = d[2] + "-" + d[1] + "-" + d[0]
		}
		clock = m[3]
	}

	aliases := e.cfg.DriverAliases(track)
	lines := extract.SplitLines(decoded)

	drivers := e.standings(lines, aliases)

	if track == trackGoodwill && len(drivers) == 0 {
		drivers = e.goodwillSessions(decoded, path)
	}

	switch {
	case len(drivers) == 0:
		// Fall through with an empty record; the caller decides whether
		// an empty session is worth reporting.
	case track == trackVoltage:
		e.columnTable(lines, aliases, drivers, "Detailed results", 2, false)
	case track == trackBerghem:
		e.columnTable(lines, aliases, drivers, "Jouw Rondetijden", 1, true)
	case track == trackGoodwill:
		e.goodwillDetail(decoded, drivers)
	}

	if len(drivers) == 0 {
		return nil, fmt.Errorf("%w: no configured drivers in standings", domain.ErrStructuralMismatch)
	}

	return &domain.SessionRecord{
		Track:       track,
		Session:     session,
		SessionType: "Practice",
		Date:        date,
		Time:        clock,
		Source:      e.Source(),
		Drivers:     drivers,
		Filename:    filepath.Base(path),
	}, nil
}

// sessionFromPath extracts the vendor session number from the file path,
// trying vendor-specific patterns first and falling back to the first
// number in the base name.
func sessionFromPath(path string) string {
	for _, re := range sessionNamePatterns {
		if m := re.FindStringSubmatch(path); m != nil {
			return m[1]
		}
	}
	if m := anyNumberRe.FindStringSubmatch(filepath.Base(path)); m != nil {
		return m[1]
	}
	return "Unknown"
}

// standings scans the overview table: lines beginning with a position
// number, containing a configured alias, ending in a time token in
// either SS.sss or MM:SS.sss form.
func (e *Extractor) standings(lines []string, aliases domain.AliasTable) map[string]*domain.DriverSession {
	drivers := make(map[string]*domain.DriverSession)
	for _, line := range lines {
		if !standingRowRe.MatchString(line) {
			continue
		}
		canonical, ok := config.MatchAlias(aliases, line)
		if !ok {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		pos, err := strconv.Atoi(strings.TrimSuffix(parts[0], "."))
		if err != nil {
			continue
		}
		best, err := timing.ToSeconds(parts[len(parts)-1])
		if err != nil {
			logger.Debug("skipping standings line, bad time: %v", err)
			continue
		}
		drivers[canonical] = &domain.DriverSession{
			Position:  pos,
			BestTime:  best,
			DailyRank: pos,
		}
	}
	return drivers
}

// goodwillSessions handles Goodwill emails whose standings carry no
// configured alias: each "Overzicht van je rondetijden" block is an
// individual session assigned to the driver hinted by the file name.
func (e *Extractor) goodwillSessions(decoded, path string) map[string]*domain.DriverSession {
	driver := e.goodwillDriver(path)
	drivers := make(map[string]*domain.DriverSession)

	blocks := goodwillBlockRe.FindAllStringSubmatch(decoded, -1)
	for idx, block := range blocks {
		var laps []float64
		for _, line := range extract.SplitLines(block[1]) {
			line = strings.TrimSpace(line)
			if !goodwillLapRe.MatchString(line) {
				continue
			}
			parts := strings.Fields(line)
			lap, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				continue
			}
			laps = append(laps, lap)
		}
		if len(laps) == 0 {
			continue
		}
		best := laps[0]
		for _, t := range laps[1:] {
			if t < best {
				best = t
			}
		}
		drivers[driver] = &domain.DriverSession{
			Position:  1,
			BestTime:  best,
			DailyRank: idx + 1,
			Laps:      laps,
			LapGaps:   make([]float64, len(laps)),
		}
	}
	return drivers
}

// goodwillDriver resolves the session owner from the file name, scanning
// configured first names and falling back to the house default.
func (e *Extractor) goodwillDriver(path string) string {
	filename := strings.ToLower(filepath.Base(path))
	for canonical := range e.cfg.DriverAliases(trackGoodwill) {
		first := strings.ToLower(strings.Fields(canonical)[0])
		if strings.Contains(filename, first) {
			return canonical
		}
	}
	return goodwillFallbackDriver
}

// goodwillDetail fills lap and gap data for drivers found in the
// standings from the single "Overzicht van je rondetijden" section.
// Rows are "<lap> <time> [<gap>]"; only one driver's detail appears
// per email.
func (e *Extractor) goodwillDetail(decoded string, drivers map[string]*domain.DriverSession) {
	m := goodwillBlockRe.FindStringSubmatch(decoded)
	if m == nil {
		logger.Debug("no detailed lap section in Goodwill email")
		return
	}
	for _, ds := range drivers {
		if len(ds.Laps) > 0 {
			continue
		}
		for _, line := range extract.SplitLines(m[1]) {
			line = strings.TrimSpace(line)
			if !goodwillLapRe.MatchString(line) {
				continue
			}
			parts := strings.Fields(line)
			lap, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				continue
			}
			gap := 0.0
			if len(parts) >= 3 {
				gap, _ = strconv.ParseFloat(parts[2], 64)
			}
			ds.Laps = append(ds.Laps, lap)
			ds.LapGaps = append(ds.LapGaps, gap)
		}
		// Detail belongs to a single driver per email.
		break
	}
}

// columnTable parses the shared column-table layout: a header line with
// driver names split on runs of 2+ spaces, then one row per lap with a
// time column per driver. withMinutes allows MM:SS.sss cells (Berghem);
// otherwise cells containing a colon are skipped (De Voltage).
func (e *Extractor) columnTable(
	lines []string,
	aliases domain.AliasTable,
	drivers map[string]*domain.DriverSession,
	sectionTitle string,
	headerOffset int,
	withMinutes bool,
) {
	start, end := -1, -1
	for i, line := range lines {
		if strings.Contains(line, sectionTitle) {
			start = i + headerOffset
		} else if start != -1 && (strings.Contains(line, "Avg.") || strings.Contains(line, "Hist.")) {
			end = i
			break
		}
	}
	if start == -1 || end == -1 || start >= len(lines) {
		logger.Debug("could not find %q section boundaries", sectionTitle)
		return
	}

	columns := columnSplitRe.Split(strings.TrimSpace(lines[start]), -1)
	columnDrivers := make(map[int]string)
	for idx, col := range columns {
		canonical, ok := config.MatchAlias(aliases, col)
		if !ok {
			continue
		}
		if _, present := drivers[canonical]; !present {
			continue
		}
		columnDrivers[idx] = canonical
		drivers[canonical].Laps = nil
		drivers[canonical].LapGaps = nil
	}
	if len(columnDrivers) == 0 {
		return
	}

	for i := start + 1; i < end; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || !lapRowRe.MatchString(line) {
			continue
		}
		parts := whitespaceRe.Split(line, -1)
		if len(parts) < 2 {
			continue
		}
		for idx, canonical := range columnDrivers {
			// Column 0 of each row is the lap number.
			if idx+1 >= len(parts) {
				continue
			}
			cell := parts[idx+1]
			if cell == "" {
				continue
			}
			if !withMinutes && strings.Contains(cell, ":") {
				continue
			}
			lap, err := timing.ToSeconds(cell)
			if err != nil {
				logger.Debug("dropping cell %q for %s: %v", cell, canonical, err)
				continue
			}
			drivers[canonical].Laps = append(drivers[canonical].Laps, lap)
			drivers[canonical].LapGaps = append(drivers[canonical].LapGaps, 0)
		}
	}

	for _, canonical := range columnDrivers {
		logger.Debug("found %d individual laps for %s", len(drivers[canonical].Laps), canonical)
	}
}
