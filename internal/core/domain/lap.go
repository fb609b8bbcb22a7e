package domain

// LapRow is the persisted unit: one row per lap driven (or one synthetic
// row carrying only the best lap when a vendor reports no individual laps).
// Field order mirrors the persisted table's header, which downstream
// dashboards depend on.
type LapRow struct {
	// RowID is monotonic and unique across the whole table, assigned at
	// append time and never reused.
	RowID int

	Date        string // ISO YYYY-MM-DD
	Time        string // HH:MM
	SessionType string
	Heat        int
	Track       string
	TrackID     string
	InOrOutdoor string
	Weather     string
	Source      string
	Driver      string
	Position    int

	// LapNumber is 1-based within the session.
	LapNumber int
	LapTime   float64

	// Sector1-3 are formatted sector splits, empty when unavailable.
	Sector1 string
	Sector2 string
	Sector3 string

	// BestLap is "Y" for the lap within 0.001 of the session minimum.
	BestLap      string
	GapToBestLap float64

	// Interval is reserved for future use.
	Interval string

	// GapToPrevious is the formatted gap to the next-fastest lap, or a
	// vendor-provided value; empty only when genuinely unknown.
	GapToPrevious string

	// BestOfDay is populated; week/month ranks are reserved.
	BestOfDay   string
	BestOfWeek  string
	BestOfMonth string

	Kart string
	Tyre string // reserved

	// CostPerLap and HeatPrice are stamped by the pricing pass only,
	// never during extraction.
	CostPerLap string
	HeatPrice  string

	// SessionDate duplicates Date and serves as the day-grouping key.
	SessionDate   string
	TrackDistance float64
	Corners       int
	AvgSpeed      float64

	// Notes identifies session and lap, e.g.
	// "Session: Karten Sessie 12 - Lap 3". The session marker prefix is
	// the duplicate-detection key, so its format must stay stable.
	Notes string
}
