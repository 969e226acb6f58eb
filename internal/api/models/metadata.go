package models

// Enums represents the enum values used by the API.
type Enums struct {
	Pollutants          []Pollutant `json:"pollutants"`
	RegulatedPollutants []Pollutant `json:"regulatedPollutants"`
	Categories          []string    `json:"categories"`
	ProviderOrdinals    []int       `json:"providerOrdinals"`
}

// BreakpointTable is the concentration ladder of one regulated pollutant.
type BreakpointTable struct {
	Pollutant      Pollutant `json:"pollutant"`
	Unit           string    `json:"unit"`
	Concentrations []float64 `json:"concentrations"`
}

// CategoryInfo describes one overall index category. MaxIndex is omitted for
// the open-ended top category.
type CategoryInfo struct {
	Category       string `json:"category"`
	Status         string `json:"status"`
	MaxIndex       *int   `json:"maxIndex,omitempty"`
	Band           Band   `json:"band"`
	Recommendation string `json:"recommendation"`
}

// Breakpoints is the response of GET /v1/metadata/breakpoints.
type Breakpoints struct {
	IndexBreakpoints []float64         `json:"indexBreakpoints"`
	Tables           []BreakpointTable `json:"tables"`
	Categories       []CategoryInfo    `json:"categories"`
}

// Threshold is one step of a display ladder. Below is omitted on the last,
// unbounded step.
type Threshold struct {
	Below *float64 `json:"below,omitempty"`
	Band  Band     `json:"band"`
}

// PollutantThresholds is the display ladder of one pollutant.
type PollutantThresholds struct {
	Pollutant  Pollutant   `json:"pollutant"`
	Thresholds []Threshold `json:"thresholds"`
}

// Thresholds is the response of GET /v1/metadata/thresholds.
type Thresholds struct {
	Pollutants    []PollutantThresholds `json:"pollutants"`
	ProviderBands []ProviderIndexBand   `json:"providerBands"`
}
