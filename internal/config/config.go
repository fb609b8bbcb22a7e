// Package config loads and serves the processing configuration: track
// profiles, pricing tables, driver alias tables and the weather API key.
// Built-in defaults cover every known track; an optional TOML file is
// merged on top non-destructively, so explicit values always win and
// missing keys fall back to the defaults.
package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/TheMaksoo/karting/internal/core/domain"
)

// DefaultTrack is the profile key used when a track is unknown.
const DefaultTrack = "Default Track"

// fallbackHeatPrice is the synthetic per-heat rate for tracks with no
// pricing profile at all.
const fallbackHeatPrice = 30.00

// fallbackCostPerLap is the nominal rate for tracks with no profile.
const fallbackCostPerLap = 2.50

// fileConfig mirrors the recognized keys of the TOML configuration file.
type fileConfig struct {
	OpenweatherAPIKey string                         `toml:"openweather_api_key"`
	DefaultDrivers    []string                       `toml:"default_drivers"`
	TrackConfigs      map[string]trackConfig         `toml:"track_configs"`
	TrackPricing      map[string]pricingConfig       `toml:"track_pricing"`
	DriverAliases     map[string]map[string][]string `toml:"driver_aliases"`
	ApexConfigs       map[string]map[string]string   `toml:"apex_configs"`
	TrackIDs          map[string]string              `toml:"track_ids"`
	CSVFile           string                         `toml:"csv_file"`
}

type trackConfig struct {
	Indoor   bool    `toml:"indoor"`
	City     string  `toml:"city"`
	Country  string  `toml:"country"`
	Timezone string  `toml:"timezone"`
	Distance float64 `toml:"distance"`
	Corners  int     `toml:"corners"`
	TrackID  string  `toml:"track_id"`
	Status   string  `toml:"status"`
}

type pricingConfig struct {
	CostPerLap float64 `toml:"cost_per_lap"`
	// TOML table keys are strings; heat counts are parsed on merge.
	HeatPricing map[string]float64 `toml:"heat_pricing"`
}

// Config is the fully merged configuration, constructed once at startup
// and passed by injection into every component that needs track, pricing
// or alias data.
type Config struct {
	OpenweatherAPIKey string
	DefaultDrivers    []string
	Tracks            map[string]domain.TrackProfile
	Pricing           map[string]domain.PricingProfile
	Aliases           map[string]domain.AliasTable
	ApexConfigs       map[string]map[string]string
	TrackIDs          map[string]string
	CSVFile           string
}

// Load reads the TOML file at path (skipped when path is empty or the
// file does not exist) and merges it over the built-in defaults. The
// OPENWEATHER_API_KEY environment variable takes precedence over both.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file is fine; defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			var fc fileConfig
			if err := toml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
			mergeFile(cfg, &fc)
		}
	}

	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		cfg.OpenweatherAPIKey = key
	}
	return cfg, nil
}

// mergeFile overlays explicit file values onto the defaults.
func mergeFile(cfg *Config, fc *fileConfig) {
	if fc.OpenweatherAPIKey != "" {
		cfg.OpenweatherAPIKey = fc.OpenweatherAPIKey
	}
	if len(fc.DefaultDrivers) > 0 {
		cfg.DefaultDrivers = fc.DefaultDrivers
	}
	if fc.CSVFile != "" {
		cfg.CSVFile = fc.CSVFile
	}
	for name, tc := range fc.TrackConfigs {
		profile := domain.TrackProfile{
			Name:     name,
			Indoor:   tc.Indoor,
			City:     tc.City,
			Country:  tc.Country,
			Timezone: tc.Timezone,
			Distance: tc.Distance,
			Corners:  tc.Corners,
			TrackID:  tc.TrackID,
			Status:   tc.Status,
		}
		cfg.Tracks[name] = profile
	}
	for name, pc := range fc.TrackPricing {
		profile := domain.PricingProfile{
			CostPerLap:  pc.CostPerLap,
			HeatPricing: make(map[int]float64, len(pc.HeatPricing)),
		}
		for heats, price := range pc.HeatPricing {
			n, err := strconv.Atoi(heats)
			if err != nil || n < 1 {
				continue
			}
			profile.HeatPricing[n] = price
		}
		cfg.Pricing[name] = profile
	}
	for track, table := range fc.DriverAliases {
		at := make(domain.AliasTable, len(table))
		for canonical, aliases := range table {
			at[canonical] = aliases
		}
		cfg.Aliases[track] = at
	}
	for track, ac := range fc.ApexConfigs {
		cfg.ApexConfigs[track] = ac
	}
	for track, id := range fc.TrackIDs {
		cfg.TrackIDs[track] = id
	}
}

// TrackProfile returns the profile for a track, falling back to the
// default profile when the track is unknown.
func (c *Config) TrackProfile(name string) domain.TrackProfile {
	if p, ok := c.Tracks[name]; ok {
		return p
	}
	p := c.Tracks[DefaultTrack]
	p.Name = name
	return p
}

// PricingProfile returns the pricing for a track, falling back to a
// synthetic flat-rate profile when the track has none.
func (c *Config) PricingProfile(name string) domain.PricingProfile {
	if p, ok := c.Pricing[name]; ok {
		return p
	}
	return domain.PricingProfile{
		CostPerLap:  fallbackCostPerLap,
		HeatPricing: map[int]float64{1: fallbackHeatPrice},
	}
}

// TrackID returns the stable track identifier, or the default id.
func (c *Config) TrackID(name string) string {
	if id, ok := c.TrackIDs[name]; ok {
		return id
	}
	return c.TrackIDs["default"]
}

// DriverAliases returns the alias table for a track. Aliases identical to
// their canonical name (case-insensitively) are filtered out unless that
// would leave the list empty. Tracks without a table get identity
// aliasing over the default driver list.
func (c *Config) DriverAliases(track string) domain.AliasTable {
	table, ok := c.Aliases[track]
	if !ok || len(table) == 0 {
		identity := make(domain.AliasTable, len(c.DefaultDrivers))
		for _, d := range c.DefaultDrivers {
			identity[d] = []string{d}
		}
		return identity
	}

	filtered := make(domain.AliasTable, len(table))
	for canonical, aliases := range table {
		var keep []string
		for _, a := range aliases {
			if !strings.EqualFold(a, canonical) {
				keep = append(keep, a)
			}
		}
		if len(keep) == 0 {
			keep = []string{canonical}
		}
		filtered[canonical] = keep
	}
	return filtered
}

// MatchAlias resolves raw vendor text to a canonical driver name using
// case-insensitive substring containment. This single function is the
// documented over-match surface: harden here (e.g. word boundaries)
// without touching extractors. Canonical names are tried in sorted order
// so resolution is deterministic.
func MatchAlias(table domain.AliasTable, raw string) (string, bool) {
	lower := strings.ToLower(raw)
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, canonical := range names {
		for _, alias := range table[canonical] {
			if alias == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(alias)) {
				return canonical, true
			}
		}
	}
	return "", false
}

// HeatPrice returns the flat price for driving the given number of heats
// at a track. Exact table entries win; otherwise the price is estimated
// from the single-heat rate with a bounded multi-heat discount, never
// dropping below 85% of linear.
func (c *Config) HeatPrice(track string, heats int) float64 {
	if heats < 1 {
		heats = 1
	}
	p, ok := c.Pricing[track]
	if !ok {
		return float64(heats) * fallbackHeatPrice
	}
	if price, ok := p.HeatPricing[heats]; ok {
		return price
	}
	single, ok := p.HeatPricing[1]
	if !ok {
		single = fallbackHeatPrice
	}
	discount := math.Max(0.85, 1.0-float64(heats-1)*0.05)
	return math.Round(single*float64(heats)*discount*100) / 100
}

// CostPerLap returns the nominal per-lap rate for a track.
func (c *Config) CostPerLap(track string) float64 {
	p, ok := c.Pricing[track]
	if !ok || p.CostPerLap == 0 {
		return fallbackCostPerLap
	}
	return p.CostPerLap
}
