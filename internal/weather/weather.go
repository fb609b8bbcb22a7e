// Package weather estimates conditions for a session. Indoor tracks
// short-circuit, outdoor tracks try a lap-time rain heuristic, then a
// live OpenWeather lookup, then a seasonal estimate. A failed lookup is
// never fatal and never logs credentials.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/logger"
)

const (
	openWeatherURL = "http://api.openweathermap.org/data/2.5/weather"
	userAgent      = "KartingApp/1.0"
	lookupTimeout  = 10 * time.Second
)

// Client resolves a weather label for one session.
type Client struct {
	cfg     *config.Config
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
}

// New creates a weather client. Lookups are capped at one request per
// second so folder-sized batches stay polite to the API.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: lookupTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: openWeatherURL,
	}
}

// For returns the weather label for a session at the given track. It
// always returns a usable label; external failures degrade to estimates.
func (c *Client) For(ctx context.Context, rec *domain.SessionRecord) string {
	profile := c.cfg.TrackProfile(rec.Track)
	if profile.Indoor {
		return "Indoor"
	}

	if rainFromLapTimes(rec) {
		return "Rainy"
	}

	if profile.City != "" && profile.Country != "" && c.cfg.OpenweatherAPIKey != "" {
		if label, err := c.lookup(ctx, profile.City, profile.Country); err == nil {
			return label
		} else {
			// Never include the request URL or error chain: both can
			// carry the API key.
			logger.Warn("weather lookup failed for %s, falling back to seasonal estimate", profile.City)
		}
	}

	return seasonal(rec.Date)
}

// rainFromLapTimes flags rain when a majority of drivers show the slow
// lap profile of a wet track. The thresholds are tuned for Circuit Park
// Berghem, where dry laps sit in the low sixties.
func rainFromLapTimes(rec *domain.SessionRecord) bool {
	if rec.Track != "Circuit Park Berghem" {
		return false
	}
	indicators, total := 0, 0
	for _, ds := range rec.Drivers {
		if len(ds.Laps) == 0 {
			continue
		}
		sum, maxLap := 0.0, 0.0
		for _, t := range ds.Laps {
			sum += t
			if t > maxLap {
				maxLap = t
			}
		}
		if sum/float64(len(ds.Laps)) > 70 || maxLap > 80 {
			indicators++
		}
		total++
	}
	return total > 0 && float64(indicators)/float64(total) > 0.5
}

type openWeatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

func (c *Client) lookup(ctx context.Context, city, country string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("q", city+","+country)
	q.Set("appid", c.cfg.OpenweatherAPIKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: weather request failed", domain.ErrExternalService)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: weather API returned HTTP %d", domain.ErrExternalService, resp.StatusCode)
	}

	var body openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding weather response", domain.ErrExternalService)
	}
	if len(body.Weather) == 0 {
		return "", fmt.Errorf("%w: empty weather response", domain.ErrExternalService)
	}

	desc := body.Weather[0].Description
	logger.Info("weather for %s: %s (%.1f°C)", city, desc, body.Main.Temp)
	return classify(desc), nil
}

// classify maps an OpenWeather description to one of our categories.
func classify(desc string) string {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "rain") || strings.Contains(lower, "drizzle"):
		return "Rainy"
	case strings.Contains(lower, "cloud"):
		return "Cloudy"
	case strings.Contains(lower, "clear") || strings.Contains(lower, "sun"):
		return "Sunny"
	case strings.Contains(lower, "snow"):
		return "Snowy"
	case strings.Contains(lower, "mist") || strings.Contains(lower, "fog"):
		return "Foggy"
	default:
		return title(desc)
	}
}

// title uppercases the first letter of each word without pulling in
// a locale-aware dependency for ASCII descriptions.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// seasonal estimates conditions from the month, tuned for the Low
// Countries where most of these tracks sit.
func seasonal(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "Mild"
	}
	switch t.Month() {
	case time.December, time.January, time.February:
		return "Cloudy"
	case time.March, time.April, time.May:
		return "Partly Cloudy"
	case time.June, time.July, time.August:
		return "Sunny"
	default:
		return "Overcast"
	}
}
