package config

import "github.com/TheMaksoo/karting/internal/core/domain"

// Defaults returns the built-in configuration covering every track the
// extractors know about. File values are merged on top of this.
func Defaults() *Config {
	defaultDrivers := []string{"Driver 1", "Driver 2", "Driver 3"}

	tracks := map[string]domain.TrackProfile{
		DefaultTrack: {
			Name: DefaultTrack, Indoor: true, City: "Unknown", Country: "Unknown",
			Timezone: "UTC", Distance: 400, Corners: 10,
		},
		"Fastkart Elche": {
			Name: "Fastkart Elche", Indoor: false, City: "Elche", Country: "Spain",
			Timezone: "Europe/Madrid", Distance: 1160, Corners: 14, TrackID: "TRK-001",
		},
		"De Voltage": {
			Name: "De Voltage", Indoor: true, City: "Tilburg", Country: "Netherlands",
			Timezone: "Europe/Amsterdam", Distance: 450, Corners: 12, TrackID: "TRK-002",
		},
		"Experience Factory Antwerp": {
			Name: "Experience Factory Antwerp", Indoor: true, City: "Antwerp", Country: "Belgium",
			Timezone: "Europe/Brussels", Distance: 350, Corners: 9, TrackID: "TRK-003",
		},
		"Circuit Park Berghem": {
			Name: "Circuit Park Berghem", Indoor: false, City: "Berghem", Country: "Netherlands",
			Timezone: "Europe/Amsterdam", Distance: 1200, Corners: 14, TrackID: "TRK-004",
		},
		"Goodwill Karting": {
			Name: "Goodwill Karting", Indoor: true, City: "Olen", Country: "Belgium",
			Timezone: "Europe/Brussels", Distance: 600, Corners: 12, TrackID: "TRK-005",
		},
		"Lot66": {
			Name: "Lot66", Indoor: true, City: "Breda", Country: "Netherlands",
			Timezone: "Europe/Amsterdam", Distance: 325, Corners: 11, TrackID: "TRK-006",
			Status: "PERMANENTLY CLOSED",
		},
		"Racing Center Gilesias": {
			Name: "Racing Center Gilesias", Indoor: false, City: "Guardamar del Segura", Country: "Spain",
			Timezone: "Europe/Madrid", Distance: 500, Corners: 12, TrackID: "TRK-007",
		},
	}

	pricing := map[string]domain.PricingProfile{
		DefaultTrack: {
			CostPerLap:  2.50,
			HeatPricing: map[int]float64{1: 30.00, 2: 57.00, 3: 81.00},
		},
		"Fastkart Elche": {
			CostPerLap:  2.14,
			HeatPricing: map[int]float64{1: 20.00, 2: 30.00, 3: 40.00, 4: 50.00, 5: 60.00},
		},
		"De Voltage": {
			CostPerLap:  1.65,
			HeatPricing: map[int]float64{1: 19.75},
		},
		"Experience Factory Antwerp": {
			CostPerLap:  2.14,
			HeatPricing: map[int]float64{1: 23.50},
		},
		"Circuit Park Berghem": {
			CostPerLap:  0.91,
			HeatPricing: map[int]float64{1: 19.95, 3: 49.95},
		},
		"Goodwill Karting": {
			CostPerLap:  0.89,
			HeatPricing: map[int]float64{1: 16.00, 2: 32.00, 3: 47.00, 4: 60.00},
		},
		"Lot66": {
			CostPerLap:  2.00,
			HeatPricing: map[int]float64{1: 30.00},
		},
		"Racing Center Gilesias": {
			CostPerLap:  0.83,
			HeatPricing: map[int]float64{1: 15.00},
		},
	}

	friendAliases := domain.AliasTable{
		"Max van Lierop":   {"Max", "M. Lierop"},
		"Quinten van Wesel": {"Quinten", "Q. Wesel"},
	}
	identity := make(domain.AliasTable, len(defaultDrivers))
	for _, d := range defaultDrivers {
		identity[d] = []string{d}
	}
	aliases := map[string]domain.AliasTable{
		DefaultTrack:                 identity,
		"Fastkart Elche":             cloneAliases(friendAliases),
		"De Voltage":                 cloneAliases(friendAliases),
		"Experience Factory Antwerp": cloneAliases(friendAliases),
		"Circuit Park Berghem":       cloneAliases(friendAliases),
		"Goodwill Karting":           cloneAliases(friendAliases),
		"Racing Center Gilesias":     cloneAliases(friendAliases),
	}

	trackIDs := map[string]string{
		"default":                    "TRK-001",
		"Fastkart Elche":             "TRK-001",
		"De Voltage":                 "TRK-002",
		"Experience Factory Antwerp": "TRK-003",
		"Circuit Park Berghem":       "TRK-004",
		"Goodwill Karting":           "TRK-005",
		"Lot66":                      "TRK-006",
		"Racing Center Gilesias":     "TRK-007",
	}

	return &Config{
		DefaultDrivers: defaultDrivers,
		Tracks:         tracks,
		Pricing:        pricing,
		Aliases:        aliases,
		ApexConfigs:    map[string]map[string]string{},
		TrackIDs:       trackIDs,
		CSVFile:        "Karten.csv",
	}
}

func cloneAliases(src domain.AliasTable) domain.AliasTable {
	dst := make(domain.AliasTable, len(src))
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
	return dst
}
