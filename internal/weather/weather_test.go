package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
)

func record(track string, laps ...[]float64) *domain.SessionRecord {
	drivers := make(map[string]*domain.DriverSession)
	for i, l := range laps {
		drivers[string(rune('A'+i))] = &domain.DriverSession{Laps: l}
	}
	return &domain.SessionRecord{Track: track, Date: "2024-06-15", Drivers: drivers}
}

func TestFor_IndoorShortCircuit(t *testing.T) {
	c := New(config.Defaults())
	got := c.For(context.Background(), record("De Voltage", []float64{45.1}))
	assert.Equal(t, "Indoor", got)
}

func TestFor_BerghemRainHeuristic(t *testing.T) {
	c := New(config.Defaults())

	wet := record("Circuit Park Berghem", []float64{75.0, 76.2}, []float64{72.1, 74.0})
	assert.Equal(t, "Rainy", c.For(context.Background(), wet))

	// Dry lap profile falls through to the seasonal estimate (no API key).
	dry := record("Circuit Park Berghem", []float64{62.0, 63.1}, []float64{61.5, 62.2})
	assert.Equal(t, "Sunny", c.For(context.Background(), dry))
}

func TestFor_LiveLookup(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"weather":[{"description":"light rain"}],"main":{"temp":14.2}}`))
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.OpenweatherAPIKey = "test-key"
	c := New(cfg)
	c.baseURL = srv.URL

	got := c.For(context.Background(), record("Circuit Park Berghem", []float64{62.0, 63.0}))
	assert.Equal(t, "Rainy", got)
	assert.Equal(t, "Berghem,Netherlands", gotQuery)
}

func TestFor_LookupFailureFallsBackSeasonally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.OpenweatherAPIKey = "bad-key"
	c := New(cfg)
	c.baseURL = srv.URL

	got := c.For(context.Background(), record("Circuit Park Berghem", []float64{62.0}))
	assert.Equal(t, "Sunny", got)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"light rain", "Rainy"},
		{"drizzle", "Rainy"},
		{"scattered clouds", "Cloudy"},
		{"clear sky", "Sunny"},
		{"snow showers", "Snowy"},
		{"mist", "Foggy"},
		{"haze", "Haze"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.desc))
		})
	}
}

func TestSeasonal(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-01-10", "Cloudy"},
		{"2024-04-02", "Partly Cloudy"},
		{"2024-07-20", "Sunny"},
		{"2024-10-05", "Overcast"},
		{"not-a-date", "Mild"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, seasonal(tt.date))
		})
	}
}

func TestRainFromLapTimes_MinorityDoesNotFlag(t *testing.T) {
	rec := record("Circuit Park Berghem", []float64{85.0}, []float64{62.0}, []float64{63.0})
	assert.False(t, rainFromLapTimes(rec))
}

func TestRainFromLapTimes_OtherTracksIgnored(t *testing.T) {
	rec := record("Fastkart Elche", []float64{95.0, 96.0})
	assert.False(t, rainFromLapTimes(rec))
}
