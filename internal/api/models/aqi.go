package models

// Components are raw pollutant concentrations in µg/m³, keyed the way
// OpenWeatherMap reports them. Every field is required on input.
type Components struct {
	CO   *float64 `json:"co"`
	NO   *float64 `json:"no"`
	NO2  *float64 `json:"no2"`
	O3   *float64 `json:"o3"`
	SO2  *float64 `json:"so2"`
	PM25 *float64 `json:"pm2_5"`
	PM10 *float64 `json:"pm10"`
	NH3  *float64 `json:"nh3"`
}

// ComputeRequest is the body of POST /v1/aqi:compute.
type ComputeRequest struct {
	Components    Components `json:"components"`
	ProviderIndex *int       `json:"providerIndex,omitempty"`
	Location      *Point     `json:"location,omitempty"`
}

// SubIndex is the index computed for one regulated pollutant.
type SubIndex struct {
	Pollutant     Pollutant `json:"pollutant"`
	Concentration float64   `json:"concentration"`
	Converted     float64   `json:"converted"`
	Unit          string    `json:"unit"`
	Exact         float64   `json:"exact"`
	Index         int       `json:"index"`
	Extrapolated  bool      `json:"extrapolated,omitempty"`
}

// AQI is the overall index of a reading.
type AQI struct {
	Value        int         `json:"value"`
	Category     string      `json:"category"`
	Band         Band        `json:"band"`
	Dominant     Pollutant   `json:"dominant,omitempty"`
	SubIndices   []SubIndex  `json:"subIndices"`
	Extrapolated []Pollutant `json:"extrapolated,omitempty"`
}

// PollutantStatus is the display classification of one pollutant. Value is
// omitted when the concentration was not a finite number.
type PollutantStatus struct {
	Pollutant Pollutant `json:"pollutant"`
	Value     *float64  `json:"value,omitempty"`
	Formatted string    `json:"formatted,omitempty"`
	Band      Band      `json:"band"`
}

// Assessment is the full air quality view of a reading.
type Assessment struct {
	Location       *Point            `json:"location,omitempty"`
	AQI            AQI               `json:"aqi"`
	Status         string            `json:"status"`
	Recommendation string            `json:"recommendation"`
	ProviderIndex  int               `json:"providerIndex,omitempty"`
	ProviderBand   Band              `json:"providerBand"`
	Pollutants     []PollutantStatus `json:"pollutants"`
	PossibleSmoke  bool              `json:"possibleSmoke"`
	Warnings       []string          `json:"warnings,omitempty"`
	ObservedAt     *Timestamp        `json:"observedAt,omitempty"`
	ComputedAt     Timestamp         `json:"computedAt"`
	Provider       string            `json:"provider,omitempty"`
}

// Forecast is a list of assessments ordered by observation time.
type Forecast struct {
	Location Point        `json:"location"`
	Provider string       `json:"provider"`
	Items    []Assessment `json:"items"`
}

// PollutantBand is the response of GET /v1/pollutants/{pollutant}/status.
type PollutantBand struct {
	Pollutant Pollutant `json:"pollutant"`
	Value     float64   `json:"value"`
	Formatted string    `json:"formatted"`
	Band      Band      `json:"band"`
}

// ProviderIndexBand is the response of GET /v1/provider-index/{ordinal}.
type ProviderIndexBand struct {
	Ordinal int  `json:"ordinal"`
	Valid   bool `json:"valid"`
	Band    Band `json:"band"`
}
