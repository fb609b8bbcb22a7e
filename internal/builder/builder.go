// Package builder expands extracted session records into canonical lap
// rows: it gates duplicates, assigns heat numbers and row ids, derives
// per-lap gaps and enriches rows with track metadata.
package builder

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/logger"
	"github.com/TheMaksoo/karting/internal/timing"
)

// bestTolerance bounds float drift when comparing lap times.
const bestTolerance = 0.001

// Builder turns session records into lap rows.
type Builder struct {
	cfg *config.Config
}

// New creates a builder over the given configuration.
func New(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Result reports one build: the rows to append, or a duplicate skip.
type Result struct {
	Rows      []domain.LapRow
	Heat      int
	Duplicate bool
}

// sessionMarker is the stable notes prefix that identifies a session.
// Duplicate detection prefix-matches on it.
func sessionMarker(session string) string {
	return "Session: Karten Sessie " + session
}

// BuildRows expands a session record against the existing table.
// nextID is the first row id to assign. A duplicate session yields
// zero rows and Duplicate set; that is a no-op for the caller, not an
// error.
func (b *Builder) BuildRows(rec *domain.SessionRecord, existing []domain.LapRow, nextID int, weather string) Result {
	if len(rec.Drivers) == 0 {
		return Result{Duplicate: false}
	}

	if b.isDuplicate(rec, existing) {
		logger.Info("%v: session %s at %s, skipping", domain.ErrDuplicateSession, rec.Session, rec.Track)
		return Result{Duplicate: true}
	}

	heat := b.heatNumber(rec, existing)
	profile := b.cfg.TrackProfile(rec.Track)
	trackID := b.cfg.TrackID(rec.Track)

	environment := "Outdoor"
	if profile.Indoor {
		environment = "Indoor"
	}

	marker := sessionMarker(rec.Session)

	base := domain.LapRow{
		Date:          rec.Date,
		Time:          rec.Time,
		SessionType:   rec.SessionType,
		Heat:          heat,
		Track:         rec.Track,
		TrackID:       trackID,
		InOrOutdoor:   environment,
		Weather:       weather,
		Source:        rec.Source,
		SessionDate:   rec.Date,
		TrackDistance: profile.Distance,
		Corners:       profile.Corners,
	}

	var rows []domain.LapRow
	for _, driver := range sortedDrivers(rec.Drivers) {
		ds := rec.Drivers[driver]
		row := base
		row.Driver = driver
		row.Position = ds.Position
		row.Kart = ds.Kart
		if ds.DailyRank > 0 {
			row.BestOfDay = strconv.Itoa(ds.DailyRank)
		}

		if len(ds.Laps) == 0 {
			rows = append(rows, syntheticRow(row, ds, marker, profile.Distance, nextID))
			nextID++
			continue
		}

		best := ds.Best()
		sorted := append([]float64(nil), ds.Laps...)
		sort.Float64s(sorted)

		for i, lap := range ds.Laps {
			r := row
			r.RowID = nextID
			nextID++
			r.LapNumber = i + 1
			r.LapTime = lap
			r.AvgSpeed = timing.AvgSpeedKmh(profile.Distance, lap)
			r.Notes = fmt.Sprintf("%s - Lap %d", marker, i+1)

			if math.Abs(lap-best) < bestTolerance {
				r.BestLap = "Y"
				r.GapToBestLap = 0
			} else {
				r.BestLap = "N"
				r.GapToBestLap = round3(lap - best)
			}

			r.GapToPrevious = gapToPrevious(ds, i, lap, sorted)
			r.Sector1, r.Sector2, r.Sector3 = lapSectors(ds, i)
			rows = append(rows, r)
		}
	}

	return Result{Rows: rows, Heat: heat}
}

// isDuplicate reports whether any driver of the record already has a
// best-lap row for the same session on the same day.
func (b *Builder) isDuplicate(rec *domain.SessionRecord, existing []domain.LapRow) bool {
	marker := sessionMarker(rec.Session)
	for _, row := range existing {
		if row.Date != rec.Date || row.Track != rec.Track {
			continue
		}
		// Exact marker or marker plus a lap suffix; a bare prefix match
		// would confuse session 1 with session 12.
		if row.Notes != marker && !strings.HasPrefix(row.Notes, marker+" - ") {
			continue
		}
		for driver, ds := range rec.Drivers {
			if row.Driver == driver &&
				row.Position == ds.Position &&
				math.Abs(row.LapTime-ds.Best()) < bestTolerance {
				return true
			}
		}
	}
	return false
}

// heatNumber assigns the sequential race index within a (track, date)
// pair. Lot66 sessions are keyed by time of day instead: multiple files
// can describe the same timestamped session, so an existing row at the
// exact (track, date, time) triple lends its heat number verbatim.
func (b *Builder) heatNumber(rec *domain.SessionRecord, existing []domain.LapRow) int {
	if strings.EqualFold(rec.Track, "Lot66") && rec.Time != "" {
		for _, row := range existing {
			if row.Track == rec.Track && row.Date == rec.Date && row.Time == rec.Time {
				return row.Heat
			}
		}
	}

	heats := lo.FilterMap(existing, func(row domain.LapRow, _ int) (int, bool) {
		return row.Heat, row.Track == rec.Track && row.Date == rec.Date && row.Heat > 0
	})
	if len(heats) == 0 {
		return 1
	}
	return lo.Max(heats) + 1
}

// syntheticRow covers vendors that report only a best time: a single
// row flagged as the best lap.
func syntheticRow(row domain.LapRow, ds *domain.DriverSession, marker string, distance float64, id int) domain.LapRow {
	row.RowID = id
	row.LapNumber = 1
	row.LapTime = ds.BestTime
	row.BestLap = "Y"
	row.GapToBestLap = 0
	row.GapToPrevious = "0.000"
	row.AvgSpeed = timing.AvgSpeedKmh(distance, ds.BestTime)
	row.Notes = marker
	if ds.HasSectors {
		row.Sector1 = formatSector(ds.BestSectors[0])
		row.Sector2 = formatSector(ds.BestSectors[1])
		row.Sector3 = formatSector(ds.BestSectors[2])
	}
	return row
}

// gapToPrevious prefers a vendor-provided gap, then derives the delta
// to the next-fastest lap of the session, bottoming out at zero for the
// fastest lap.
func gapToPrevious(ds *domain.DriverSession, i int, lap float64, sorted []float64) string {
	if i < len(ds.LapGaps) && ds.LapGaps[i] != 0 {
		return strconv.FormatFloat(ds.LapGaps[i], 'f', 3, 64)
	}
	faster := lo.Filter(sorted, func(t float64, _ int) bool { return t < lap })
	if len(faster) == 0 {
		return "0.000"
	}
	return strconv.FormatFloat(round3(lap-lo.Max(faster)), 'f', 3, 64)
}

// lapSectors resolves sector splits for one lap, falling back to the
// session's best-lap sectors when per-lap data is missing.
func lapSectors(ds *domain.DriverSession, i int) (string, string, string) {
	if i < len(ds.LapSectors) {
		s := ds.LapSectors[i]
		return formatSector(s[0]), formatSector(s[1]), formatSector(s[2])
	}
	if ds.HasSectors {
		return formatSector(ds.BestSectors[0]), formatSector(ds.BestSectors[1]), formatSector(ds.BestSectors[2])
	}
	return "", "", ""
}

func formatSector(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func sortedDrivers(drivers map[string]*domain.DriverSession) []string {
	names := lo.Keys(drivers)
	sort.Strings(names)
	return names
}
