// Package apexmail extracts sessions from Experience Factory Antwerp
// result emails: a base64-encoded HTML/text report mailed to the driver,
// carrying a summary table and an individual lap-times section.
package apexmail

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
	"github.com/TheMaksoo/karting/internal/timing"
)

// Ensure Extractor implements the interface.
var _ extract.Extractor = (*Extractor)(nil)

// senderDrivers maps known sender addresses to the driver the report
// belongs to, used when the file name carries no driver hint.
var senderDrivers = map[string]string{
	`maxvanlierop05@gmail\.com`:  "Max van Lierop",
	`apex-timing@quintenvw\.com`: "Quinten van Wesel",
}

var (
	raceHeaderRe = regexp.MustCompile(`(\d+)\.\s*RACE`)
	raceTimingRe = regexp.MustCompile(`-\s*(\d{2}:\d{2})\s*-\s*(\d{2}/\d{2}/\d{4})`)
	individualRe = regexp.MustCompile(`^(\d+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+([\d:.]+)`)
	positionRe   = regexp.MustCompile(`^\d{1,2}$`)
)

// Extractor handles Experience Factory Antwerp emails.
type Extractor struct {
	cfg *config.Config
}

// New creates an Experience Factory extractor.
func New(cfg *config.Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Tracks returns the track names this extractor handles.
func (e *Extractor) Tracks() []string {
	return []string{"Experience Factory Antwerp"}
}

// Source returns the data source tag for produced rows.
func (e *Extractor) Source() string {
	return "Apex Timing"
}

// Extract parses one Experience Factory result email.
func (e *Extractor) Extract(_ context.Context, content []byte, path, track string) (*domain.SessionRecord, error) {
	raw := string(content)

	driver, err := e.detectDriver(raw, path)
	if err != nil {
		// A session with an unidentifiable driver is useless; never guess.
		return nil, err
	}

	decoded, err := extract.DecodeBase64Part(raw)
	if err != nil {
		return nil, err
	}
	lines := extract.SplitLines(decoded)

	session, date, clock := e.raceHeader(lines)
	aliases := e.cfg.DriverAliases(track)

	ds, found := e.summaryRow(lines, aliases[driver])
	if !found {
		logger.Debug("no summary row for %s, deriving from individual laps", driver)
		ds = &domain.DriverSession{Position: 1}
	}

	e.individualLaps(lines, ds)
	reconcile(ds, found)

	if len(ds.Laps) == 0 && !found {
		return nil, fmt.Errorf("%w: no timing data for %s", domain.ErrStructuralMismatch, driver)
	}

	return &domain.SessionRecord{
		Track:       track,
		Session:     session,
		SessionType: "Practice",
		Date:        date,
		Time:        clock,
		Source:      e.Source(),
		Drivers:     map[string]*domain.DriverSession{driver: ds},
		Filename:    filepath.Base(path),
	}, nil
}

// detectDriver resolves the target driver from the file name first
// (substring match on known first names), then from fixed sender
// addresses in the raw email.
func (e *Extractor) detectDriver(raw, path string) (string, error) {
	filename := strings.ToLower(filepath.Base(path))
	for canonical := range e.cfg.DriverAliases("Experience Factory Antwerp") {
		first := strings.ToLower(strings.Fields(canonical)[0])
		if strings.Contains(filename, first) {
			logger.Debug("detected %s from filename %s", canonical, filename)
			return canonical, nil
		}
	}

	for pattern, canonical := range senderDrivers {
		if regexp.MustCompile(`(?i)` + pattern).MatchString(raw) {
			logger.Debug("detected %s from sender address", canonical)
			return canonical, nil
		}
	}

	return "", fmt.Errorf("%w: cannot determine driver from filename or sender", domain.ErrUnrecognizedFormat)
}

// raceHeader locates the results header line ("49. RACE - 19:00 -
// 26/08/2025 ...") and returns session id, ISO date and HH:MM time.
func (e *Extractor) raceHeader(lines []string) (session, date, clock string) {
	session, date, clock = "EFA-Unknown", "2025-08-26", "19:00"
	for _, line := range lines {
		m := raceHeaderRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		session = "EFA-" + m[1]
		if tm := raceTimingRe.FindStringSubmatch(line); tm != nil {
			clock = tm[1]
			if d := strings.Split(tm[2], "/"); len(d) == 3 {
				date = d[2] + "-" + d[1] + "-" + d[0]
			}
		}
		return session, date, clock
	}
	return session, date, clock
}

// summaryRow scans for the tabular summary row carrying lap count,
// sector times, best time and gap for any of the driver's aliases. The
// finishing position is a bare one- or two-digit line shortly above it.
func (e *Extractor) summaryRow(lines []string, aliasList []string) (*domain.DriverSession, bool) {
	for i, line := range lines {
		for _, alias := range aliasList {
			if alias == "" || !strings.Contains(line, alias) {
				continue
			}
			re := regexp.MustCompile(regexp.QuoteMeta(alias) +
				`\s+(\d+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+([\d:.]+)\s+([\d.]+)\s+([\d:.]+)`)
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			best, err := timing.ToSeconds(m[5])
			if err != nil {
				logger.Warn("skipping summary row, bad best time %q: %v", m[5], err)
				continue
			}

			position := 1
			for j := max(0, i-5); j < i; j++ {
				if positionRe.MatchString(strings.TrimSpace(lines[j])) {
					position, _ = strconv.Atoi(strings.TrimSpace(lines[j]))
					break
				}
			}

			s1, _ := strconv.ParseFloat(m[2], 64)
			s2, _ := strconv.ParseFloat(m[3], 64)
			s3, _ := strconv.ParseFloat(m[4], 64)

			return &domain.DriverSession{
				Position:    position,
				BestTime:    best,
				BestSectors: [3]float64{s1, s2, s3},
				HasSectors:  true,
			}, true
		}
	}
	return nil, false
}

// individualLaps scans the "Your lap times" section for rows of the form
// "<lap> <s1> <s2> <s3> <time>", stopping at the next named section or a
// blank line. Unparsable lap times are dropped with a warning.
func (e *Extractor) individualLaps(lines []string, ds *domain.DriverSession) {
	for i, line := range lines {
		if !strings.Contains(line, "Your lap times") {
			continue
		}
		// Skip the section title and the column header line.
		for j := i + 2; j < len(lines); j++ {
			lapLine := strings.TrimSpace(lines[j])
			if lapLine == "" || strings.Contains(lapLine, "Your last sessions") {
				break
			}
			m := individualRe.FindStringSubmatch(lapLine)
			if m == nil {
				continue
			}
			lapTime, err := timing.ToSeconds(m[5])
			if err != nil {
				logger.Warn("dropping lap %s: %v", m[1], err)
				continue
			}
			s1, _ := strconv.ParseFloat(m[2], 64)
			s2, _ := strconv.ParseFloat(m[3], 64)
			s3, _ := strconv.ParseFloat(m[4], 64)
			ds.Laps = append(ds.Laps, lapTime)
			ds.LapSectors = append(ds.LapSectors, [3]float64{s1, s2, s3})
		}
		// Only the first lap-times section belongs to this driver.
		return
	}
}

// reconcile derives best time and representative sectors from the
// individual laps when the summary row was absent.
func reconcile(ds *domain.DriverSession, hadSummary bool) {
	if len(ds.Laps) == 0 || hadSummary {
		return
	}
	bestIdx := 0
	for i, t := range ds.Laps {
		if t < ds.Laps[bestIdx] {
			bestIdx = i
		}
	}
	ds.BestTime = ds.Laps[bestIdx]
	if bestIdx < len(ds.LapSectors) {
		ds.BestSectors = ds.LapSectors[bestIdx]
		ds.HasSectors = true
	}
}
