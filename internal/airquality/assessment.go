package airquality

import "time"

// Smoke indicator thresholds.
const (
	smokeProviderIndex = 4
	smokePM25          = 55.0
	smokeCO            = 9000.0
)

// SmokeIndicator reports possible wildfire smoke. It is a heuristic over the
// provider index, PM2.5 and CO, not a measurement.
func SmokeIndicator(providerIndex int, r Reading) bool {
	return providerIndex >= smokeProviderIndex || r.PM25 >= smokePM25 || r.CO >= smokeCO
}

// PollutantStatus is the display classification of one pollutant.
type PollutantStatus struct {
	Pollutant Pollutant
	Value     float64
	Formatted string
	Band      CategoryBand
}

// Assessment combines every derived view of an observation.
type Assessment struct {
	Lat float64
	Lon float64

	// Index is the EPA index computed from the raw concentrations.
	Index          ComputedIndex
	Status         string
	Recommendation string

	// ProviderIndex is the provider's ordinal passed through untouched.
	ProviderIndex int
	ProviderBand  CategoryBand

	Pollutants    []PollutantStatus
	PossibleSmoke bool

	// ReadingError is set when the reading failed validation and Index is a
	// best-effort estimate.
	ReadingError error

	ObservedAt time.Time
	ComputedAt time.Time
	Provider   string
}

// Assess derives the full assessment of an observation computed at now. It
// never fails: validation problems are reported in ReadingError.
func Assess(obs Observation, now time.Time) Assessment {
	index, err := ComputeOverallIndex(obs.Reading)

	statuses := make([]PollutantStatus, 0, len(AllPollutants()))
	for _, p := range AllPollutants() {
		v := obs.Reading.Value(p)
		statuses = append(statuses, PollutantStatus{
			Pollutant: p,
			Value:     v,
			Formatted: FormatConcentration(p, v),
			Band:      ClassifyPollutant(p, v),
		})
	}

	return Assessment{
		Lat:            obs.Lat,
		Lon:            obs.Lon,
		Index:          index,
		Status:         index.Category.Status(),
		Recommendation: Recommendation(index.Value),
		ProviderIndex:  obs.ProviderIndex,
		ProviderBand:   CategorizeProviderIndex(obs.ProviderIndex),
		Pollutants:     statuses,
		PossibleSmoke:  SmokeIndicator(obs.ProviderIndex, obs.Reading),
		ReadingError:   err,
		ObservedAt:     obs.ObservedAt,
		ComputedAt:     now,
		Provider:       obs.Provider,
	}
}
