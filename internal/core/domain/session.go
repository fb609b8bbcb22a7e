package domain

// SessionRecord is the intermediate result of one extractor call: a single
// timed session at one track, before canonical row expansion.
type SessionRecord struct {
	// Track is the canonical track name the session belongs to.
	Track string

	// Session is the vendor's freeform session identifier.
	Session string

	// SessionType is the kind of session; vendors here only report practice.
	SessionType string

	// Date is the session date in ISO form (YYYY-MM-DD).
	Date string

	// Time is the session start time (HH:MM).
	Time string

	// Source tags which timing system produced the data.
	Source string

	// Drivers maps canonical driver name to that driver's session data.
	Drivers map[string]*DriverSession

	// Filename is the base name of the source file, kept for diagnostics.
	Filename string
}

// DriverSession holds one driver's timing bundle within a session.
type DriverSession struct {
	// Laps are the individual lap times in seconds, in driving order.
	// May be empty when the vendor only reports a best time.
	Laps []float64

	// LapSectors holds a sector-time triple per lap, parallel to Laps.
	// Empty when the vendor reports no sector splits.
	LapSectors [][3]float64

	// LapGaps holds vendor-provided gap-to-previous values parallel to Laps.
	// Zero-length when the vendor reports none; the builder then derives gaps.
	LapGaps []float64

	// BestSectors is the sector triple of the best lap, used as the session
	// representative when a lap has no sector data of its own.
	BestSectors [3]float64
	HasSectors  bool

	// BestTime is the fastest lap in seconds. If Laps is non-empty the
	// builder reconciles this to min(Laps).
	BestTime float64

	// Position is the finishing position in the session standings.
	Position int

	// DailyRank is the driver's rank among their own runs that day.
	DailyRank int

	// Kart is the vendor-reported kart identifier, when present.
	Kart string
}

// Best returns the fastest lap, preferring the recorded laps over the
// vendor summary value.
func (d *DriverSession) Best() float64 {
	if len(d.Laps) == 0 {
		return d.BestTime
	}
	best := d.Laps[0]
	for _, t := range d.Laps[1:] {
		if t < best {
			best = t
		}
	}
	return best
}
