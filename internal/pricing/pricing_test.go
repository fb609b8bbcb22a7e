package pricing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
)

func lapRows(track, date, driver string, heat, laps int) []domain.LapRow {
	rows := make([]domain.LapRow, 0, laps)
	for i := 1; i <= laps; i++ {
		rows = append(rows, domain.LapRow{
			Track:     track,
			Date:      date,
			Driver:    driver,
			Heat:      heat,
			LapNumber: i,
			LapTime:   45.0,
		})
	}
	return rows
}

func sumCost(t *testing.T, rows []domain.LapRow) float64 {
	t.Helper()
	total := 0.0
	for _, row := range rows {
		v, err := strconv.ParseFloat(row.CostPerLap, 64)
		require.NoError(t, err)
		total += v
	}
	return total
}

func TestApply_SingleHeat(t *testing.T) {
	cfg := config.Defaults()
	rows := lapRows("De Voltage", "2024-06-15", "Max van Lierop", 1, 10)

	New(cfg).Apply(rows)

	// One heat at De Voltage costs 19.75; ten laps share it.
	assert.Equal(t, "19.75", rows[0].HeatPrice)
	for _, row := range rows {
		assert.Equal(t, "1.98", row.CostPerLap)
	}
	assert.InDelta(t, 19.75, sumCost(t, rows), 0.05)
}

func TestApply_RoundTripAcrossTwoHeats(t *testing.T) {
	cfg := config.Defaults()
	rows := append(
		lapRows("Fastkart Elche", "2024-07-14", "Max van Lierop", 1, 6),
		lapRows("Fastkart Elche", "2024-07-14", "Max van Lierop", 2, 4)...,
	)

	New(cfg).Apply(rows)

	// Two heats at Fastkart cost 30.00 total, 15.00 per heat. A driver
	// who drove both heats reconstructs the full day price from their
	// lap costs.
	assert.Equal(t, "15.00", rows[0].HeatPrice)
	assert.InDelta(t, cfg.HeatPrice("Fastkart Elche", 2), sumCost(t, rows), 0.05)
}

func TestApply_DriversPricedIndependently(t *testing.T) {
	cfg := config.Defaults()
	rows := append(
		lapRows("Goodwill Karting", "2024-06-15", "Max van Lierop", 1, 5),
		lapRows("Goodwill Karting", "2024-06-15", "Quinten van Wesel", 1, 8)...,
	)

	New(cfg).Apply(rows)

	// Same per-heat price for both, spread over each driver's own laps.
	assert.Equal(t, "16.00", rows[0].HeatPrice)
	assert.Equal(t, "3.20", rows[0].CostPerLap)
	assert.Equal(t, "2.00", rows[5].CostPerLap)
}

func TestApply_SeparateDaysDoNotMix(t *testing.T) {
	cfg := config.Defaults()
	rows := append(
		lapRows("De Voltage", "2024-06-15", "Max van Lierop", 1, 4),
		lapRows("De Voltage", "2024-06-22", "Max van Lierop", 1, 4)...,
	)

	New(cfg).Apply(rows)

	// Each day counts its own single heat at the single-heat rate.
	assert.Equal(t, "19.75", rows[0].HeatPrice)
	assert.Equal(t, "19.75", rows[4].HeatPrice)
}

func TestApply_UnknownTrackFallback(t *testing.T) {
	cfg := config.Defaults()
	rows := lapRows("TrackX", "2024-06-15", "Driver 1", 1, 2)

	New(cfg).Apply(rows)
	assert.Equal(t, "30.00", rows[0].HeatPrice)
	assert.Equal(t, "15.00", rows[0].CostPerLap)
}

func TestApply_EmptyTable(t *testing.T) {
	assert.NotPanics(t, func() {
		New(config.Defaults()).Apply(nil)
	})
}
