// Package pricing distributes flat track fees across persisted lap
// rows. It runs as a full-table batch pass after extraction, because
// per-day heat counts and per-driver lap totals are only final once
// every file is ingested.
package pricing

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/logger"
)

// Distributor stamps CostPerLap and HeatPrice onto lap rows.
type Distributor struct {
	cfg *config.Config
}

// New creates a distributor over the given configuration.
func New(cfg *config.Config) *Distributor {
	return &Distributor{cfg: cfg}
}

type dayKey struct {
	track string
	date  string
}

type stintKey struct {
	track  string
	date   string
	driver string
	heat   int
}

// Apply recomputes pricing for every row in place. The flat price for
// a (track, date) is resolved for the number of distinct heats driven
// that day, split evenly per heat, and each driver's share of a heat is
// spread over the laps they drove in it. Summing a driver's lap costs
// for a day therefore reconstructs the per-heat price times the heats
// they attended, within rounding.
func (d *Distributor) Apply(rows []domain.LapRow) {
	if len(rows) == 0 {
		return
	}

	heatsPerDay := make(map[dayKey]map[int]struct{})
	lapsPerStint := make(map[stintKey]int)
	for _, row := range rows {
		dk := dayKey{row.Track, row.Date}
		if heatsPerDay[dk] == nil {
			heatsPerDay[dk] = make(map[int]struct{})
		}
		heatsPerDay[dk][row.Heat] = struct{}{}
		lapsPerStint[stintKey{row.Track, row.Date, row.Driver, row.Heat}]++
	}

	perHeat := make(map[dayKey]decimal.Decimal, len(heatsPerDay))
	for dk, heats := range heatsPerDay {
		count := len(heats)
		dayPrice := decimal.NewFromFloat(d.cfg.HeatPrice(dk.track, count))
		perHeat[dk] = dayPrice.Div(decimal.NewFromInt(int64(count)))
	}

	for i := range rows {
		row := &rows[i]
		dk := dayKey{row.Track, row.Date}
		heatPrice := perHeat[dk]

		laps := lapsPerStint[stintKey{row.Track, row.Date, row.Driver, row.Heat}]
		if laps == 0 {
			laps = 1
		}
		costPerLap := heatPrice.Div(decimal.NewFromInt(int64(laps)))

		row.HeatPrice = heatPrice.StringFixed(2)
		row.CostPerLap = costPerLap.StringFixed(2)
	}

	days := lo.Keys(heatsPerDay)
	logger.Debug("applied pricing across %d rows, %d track days", len(rows), len(days))
}
