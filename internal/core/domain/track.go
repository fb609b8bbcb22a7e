package domain

// TrackProfile holds static metadata for a karting track.
// Profiles are loaded once at startup and never mutated at runtime.
type TrackProfile struct {
	// Name is the canonical display name, the lookup key everywhere.
	Name string

	// Indoor is true for indoor circuits. Indoor tracks skip weather lookup.
	Indoor bool

	// City and Country locate the track for weather lookups.
	City    string
	Country string

	// Timezone is the IANA zone the track reports times in.
	Timezone string

	// Distance is the lap length in meters.
	Distance float64

	// Corners is the corner count.
	Corners int

	// TrackID is the stable identifier written to every lap row.
	TrackID string

	// Status carries an optional lifecycle flag, e.g. "PERMANENTLY CLOSED".
	Status string
}

// PricingProfile describes what a track charges.
type PricingProfile struct {
	// CostPerLap is the track's nominal currency-per-lap rate.
	CostPerLap float64

	// HeatPricing maps heat count to the flat price for that many heats.
	// The table is sparse; missing counts are estimated from the single-heat
	// price with a bounded discount.
	HeatPricing map[int]float64
}

// AliasTable maps canonical driver names to the surface forms a timing
// vendor may print for them. Matching is case-insensitive substring
// containment; prefer longer aliases in configuration because short ones
// can match inside unrelated words.
type AliasTable map[string][]string
