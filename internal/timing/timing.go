// Package timing converts vendor time strings to seconds and derives
// speed metrics from track distance and lap time.
package timing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/TheMaksoo/karting/internal/core/domain"
)

// ToSeconds converts a vendor time string to seconds.
// Accepted shapes are "M:SS.mmm" (exactly one colon) and a bare decimal
// like "30.456". Anything else yields ErrUnparsableTime; callers drop the
// affected lap and keep the session.
func ToSeconds(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty token", domain.ErrUnparsableTime)
	}

	if strings.Contains(text, ":") {
		parts := strings.Split(text, ":")
		if len(parts) != 2 {
			return 0, fmt.Errorf("%w: %q", domain.ErrUnparsableTime, text)
		}
		minutes, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrUnparsableTime, text)
		}
		seconds, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrUnparsableTime, text)
		}
		return float64(minutes)*60 + seconds, nil
	}

	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnparsableTime, text)
	}
	return seconds, nil
}

// AvgSpeedKmh computes average speed in km/h from lap distance and time,
// rounded to 2 decimals. Returns 0 for non-positive inputs; never panics.
func AvgSpeedKmh(distanceMeters, lapSeconds float64) float64 {
	if distanceMeters <= 0 || lapSeconds <= 0 {
		return 0
	}
	speed := (distanceMeters / lapSeconds) * 3.6
	if math.IsInf(speed, 0) || math.IsNaN(speed) {
		return 0
	}
	return math.Round(speed*100) / 100
}
