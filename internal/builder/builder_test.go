package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
)

func sessionRecord(track, session, date, clock string, laps []float64) *domain.SessionRecord {
	ds := &domain.DriverSession{
		Laps:      laps,
		Position:  1,
		DailyRank: 1,
	}
	if len(laps) > 0 {
		ds.BestTime = laps[0]
		for _, t := range laps {
			if t < ds.BestTime {
				ds.BestTime = t
			}
		}
	}
	return &domain.SessionRecord{
		Track:       track,
		Session:     session,
		SessionType: "Practice",
		Date:        date,
		Time:        clock,
		Source:      "Lot66 Export",
		Drivers:     map[string]*domain.DriverSession{"Driver 1": ds},
	}
}

func TestBuildRows_MultiLapExpansion(t *testing.T) {
	b := New(config.Defaults())
	rec := sessionRecord("TrackX", "1", "2024-01-01", "18:30", []float64{30.123, 29.876, 31.000})

	res := b.BuildRows(rec, nil, 1, "Indoor")
	require.False(t, res.Duplicate)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, 1, res.Heat)

	first, second, third := res.Rows[0], res.Rows[1], res.Rows[2]

	assert.Equal(t, []int{1, 2, 3}, []int{first.RowID, second.RowID, third.RowID})
	assert.Equal(t, []int{1, 2, 3}, []int{first.LapNumber, second.LapNumber, third.LapNumber})

	assert.Equal(t, "N", first.BestLap)
	assert.Equal(t, "Y", second.BestLap)
	assert.Equal(t, "N", third.BestLap)

	assert.InDelta(t, 0.247, first.GapToBestLap, 1e-9)
	assert.InDelta(t, 0, second.GapToBestLap, 1e-9)
	assert.InDelta(t, 1.124, third.GapToBestLap, 1e-9)

	// Gap to previous is the delta to the next-fastest lap.
	assert.Equal(t, "0.247", first.GapToPrevious)
	assert.Equal(t, "0.000", second.GapToPrevious)
	assert.Equal(t, "0.877", third.GapToPrevious)

	assert.Equal(t, "Session: Karten Sessie 1 - Lap 1", first.Notes)
	assert.Equal(t, "2024-01-01", first.SessionDate)
	assert.Equal(t, "18:30", first.Time)

	// Unknown track falls back to the default profile.
	assert.Equal(t, 400.0, first.TrackDistance)
	assert.Equal(t, 10, first.Corners)
	assert.Greater(t, first.AvgSpeed, 0.0)

	// Pricing columns stay empty until the distributor pass.
	assert.Equal(t, "", first.CostPerLap)
	assert.Equal(t, "", first.HeatPrice)
}

func TestBuildRows_DuplicateIsNoOp(t *testing.T) {
	b := New(config.Defaults())
	rec := sessionRecord("TrackX", "1", "2024-01-01", "18:30", []float64{30.123, 29.876})

	res := b.BuildRows(rec, nil, 1, "Indoor")
	require.Len(t, res.Rows, 2)

	again := b.BuildRows(rec, res.Rows, 3, "Indoor")
	assert.True(t, again.Duplicate)
	assert.Empty(t, again.Rows)
}

func TestBuildRows_HeatNumbering(t *testing.T) {
	b := New(config.Defaults())

	first := b.BuildRows(sessionRecord("TrackA", "1", "2024-06-15", "10:00", []float64{31.0, 30.5}), nil, 1, "Indoor")
	require.Len(t, first.Rows, 2)
	assert.Equal(t, 1, first.Heat)

	second := b.BuildRows(sessionRecord("TrackA", "2", "2024-06-15", "11:00", []float64{30.9, 30.2}), first.Rows, 3, "Indoor")
	require.Len(t, second.Rows, 2)
	assert.Equal(t, 2, second.Heat)

	// A different date starts over at heat 1.
	otherDay := b.BuildRows(sessionRecord("TrackA", "1", "2024-06-16", "10:00", []float64{31.5, 30.8}), append(first.Rows, second.Rows...), 5, "Indoor")
	assert.Equal(t, 1, otherDay.Heat)
}

func TestBuildRows_Lot66ReusesHeatForSameTime(t *testing.T) {
	b := New(config.Defaults())

	first := b.BuildRows(sessionRecord("Lot66", "1", "2024-01-01", "18:30", []float64{30.1, 29.9}), nil, 1, "Indoor")
	require.Equal(t, 1, first.Heat)

	// Same timestamped session from another file, different laps so the
	// duplicate gate stays open: the heat number is reused, not bumped.
	same := b.BuildRows(sessionRecord("Lot66", "2", "2024-01-01", "18:30", []float64{30.5, 30.0}), first.Rows, 3, "Indoor")
	assert.Equal(t, 1, same.Heat)

	later := b.BuildRows(sessionRecord("Lot66", "3", "2024-01-01", "19:15", []float64{30.7, 30.2}), first.Rows, 5, "Indoor")
	assert.Equal(t, 2, later.Heat)
}

func TestBuildRows_SyntheticRowWithoutLaps(t *testing.T) {
	b := New(config.Defaults())
	rec := sessionRecord("De Voltage", "4", "2024-06-15", "14:30", nil)
	rec.Drivers["Driver 1"].BestTime = 45.2
	rec.Drivers["Driver 1"].BestSectors = [3]float64{15.1, 14.9, 15.2}
	rec.Drivers["Driver 1"].HasSectors = true

	res := b.BuildRows(rec, nil, 10, "Indoor")
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, 10, row.RowID)
	assert.Equal(t, 1, row.LapNumber)
	assert.Equal(t, "Y", row.BestLap)
	assert.InDelta(t, 45.2, row.LapTime, 1e-9)
	assert.Equal(t, "Session: Karten Sessie 4", row.Notes)
	assert.Equal(t, "15.100", row.Sector1)
	assert.Equal(t, "15.200", row.Sector3)
}

func TestBuildRows_VendorGapsPreferred(t *testing.T) {
	b := New(config.Defaults())
	rec := sessionRecord("Goodwill Karting", "7", "2024-06-15", "15:00", []float64{40.1, 39.5})
	rec.Drivers["Driver 1"].LapGaps = []float64{0.6, 0}

	res := b.BuildRows(rec, nil, 1, "Indoor")
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "0.600", res.Rows[0].GapToPrevious)
	// A zero vendor gap falls back to the derived value.
	assert.Equal(t, "0.000", res.Rows[1].GapToPrevious)
}

func TestBuildRows_PerLapSectors(t *testing.T) {
	b := New(config.Defaults())
	rec := sessionRecord("Experience Factory Antwerp", "49", "2025-08-26", "19:00", []float64{56.5, 55.3})
	rec.Drivers["Driver 1"].LapSectors = [][3]float64{
		{21.0, 18.5, 17.0},
		{20.5, 18.2, 16.6},
	}

	res := b.BuildRows(rec, nil, 1, "Indoor")
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "21.000", res.Rows[0].Sector1)
	assert.Equal(t, "16.600", res.Rows[1].Sector3)
}

func TestBuildRows_IndoorOutdoorAndTrackMetadata(t *testing.T) {
	b := New(config.Defaults())

	indoor := b.BuildRows(sessionRecord("De Voltage", "1", "2024-06-15", "14:30", []float64{45.1}), nil, 1, "Indoor")
	require.Len(t, indoor.Rows, 1)
	assert.Equal(t, "Indoor", indoor.Rows[0].InOrOutdoor)
	assert.Equal(t, "TRK-002", indoor.Rows[0].TrackID)

	outdoor := b.BuildRows(sessionRecord("Circuit Park Berghem", "1", "2024-06-15", "14:30", []float64{62.5}), nil, 1, "Sunny")
	require.Len(t, outdoor.Rows, 1)
	assert.Equal(t, "Outdoor", outdoor.Rows[0].InOrOutdoor)
	assert.Equal(t, "Sunny", outdoor.Rows[0].Weather)
	assert.Equal(t, 1200.0, outdoor.Rows[0].TrackDistance)
}
