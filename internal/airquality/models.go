// Package airquality computes air quality indices from pollutant
// concentrations and serves them for locations with caching.
package airquality

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Provider errors.
var (
	ErrNoMeasurements      = errors.New("no measurements available")
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Engine errors.
var (
	ErrInvalidReading           = errors.New("invalid pollutant reading")
	ErrBreakpointTableExhausted = errors.New("concentration exceeds breakpoint table")
	ErrInvalidOrdinal           = errors.New("provider index outside 1-5")
)

// InvalidReadingError describes the pollutant that failed validation.
type InvalidReadingError struct {
	Pollutant Pollutant
	Value     float64
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("invalid %s concentration: %v", e.Pollutant, e.Value)
}

// Is reports whether target is ErrInvalidReading.
func (e *InvalidReadingError) Is(target error) bool {
	return target == ErrInvalidReading
}

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantCO   Pollutant = "CO"
	PollutantNO   Pollutant = "NO"
	PollutantNO2  Pollutant = "NO2"
	PollutantO3   Pollutant = "O3"
	PollutantSO2  Pollutant = "SO2"
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantNH3  Pollutant = "NH3"
)

// AllPollutants returns every pollutant carried by a Reading, in display order.
func AllPollutants() []Pollutant {
	return []Pollutant{
		PollutantCO,
		PollutantNO,
		PollutantNO2,
		PollutantO3,
		PollutantSO2,
		PollutantPM25,
		PollutantPM10,
		PollutantNH3,
	}
}

// RegulatedPollutants returns the pollutants that contribute to the EPA index.
// The order decides the dominant pollutant when sub-indices tie.
func RegulatedPollutants() []Pollutant {
	return []Pollutant{
		PollutantPM25,
		PollutantPM10,
		PollutantO3,
		PollutantNO2,
		PollutantSO2,
		PollutantCO,
	}
}

// ParsePollutant parses a pollutant name, accepting the common spellings
// used by providers ("pm2_5", "PM2.5", "pm25").
func ParsePollutant(s string) (Pollutant, bool) {
	switch normalizeName(s) {
	case "CO":
		return PollutantCO, true
	case "NO":
		return PollutantNO, true
	case "NO2":
		return PollutantNO2, true
	case "O3":
		return PollutantO3, true
	case "SO2":
		return PollutantSO2, true
	case "PM25":
		return PollutantPM25, true
	case "PM10":
		return PollutantPM10, true
	case "NH3":
		return PollutantNH3, true
	default:
		return "", false
	}
}

func normalizeName(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '.' || c == '-' || c == ' ':
			continue
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// Reading holds the concentrations of all eight pollutants in µg/m³.
type Reading struct {
	CO   float64
	NO   float64
	NO2  float64
	O3   float64
	SO2  float64
	PM25 float64
	PM10 float64
	NH3  float64
}

// Value returns the concentration for a pollutant. Unknown pollutants yield NaN.
func (r Reading) Value(p Pollutant) float64 {
	switch p {
	case PollutantCO:
		return r.CO
	case PollutantNO:
		return r.NO
	case PollutantNO2:
		return r.NO2
	case PollutantO3:
		return r.O3
	case PollutantSO2:
		return r.SO2
	case PollutantPM25:
		return r.PM25
	case PollutantPM10:
		return r.PM10
	case PollutantNH3:
		return r.NH3
	default:
		return math.NaN()
	}
}

// Validate checks that every concentration is finite and non-negative.
// The returned error wraps the first offending pollutant in AllPollutants order.
func (r Reading) Validate() error {
	for _, p := range AllPollutants() {
		if !validConcentration(r.Value(p)) {
			return &InvalidReadingError{Pollutant: p, Value: r.Value(p)}
		}
	}
	return nil
}

func validConcentration(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Observation is a provider sample at a location.
type Observation struct {
	Lat float64
	Lon float64

	// ProviderIndex is the provider's own ordinal scale (1-5).
	ProviderIndex int

	Reading Reading

	ObservedAt time.Time
	FetchedAt  time.Time

	// Provider identifies the data source.
	Provider string
}

// ValidateCoordinates checks that lat/lon are finite and within range.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
