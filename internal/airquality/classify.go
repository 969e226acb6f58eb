package airquality

import (
	"fmt"
	"math"
)

// Per-pollutant level colors.
const (
	colorGood     = "#2ECC71"
	colorFair     = "#F1C40F"
	colorModerate = "#F39C12"
	colorPoor     = "#E67E22"
	colorVeryPoor = "#E74C3C"
)

// Threshold is one step of a per-pollutant ladder. Values below Below get
// Band; the final step of a ladder has no bound.
type Threshold struct {
	Below float64
	Band  CategoryBand
}

// fiveBand builds the Good/Fair/Moderate/Poor/Very Poor ladder.
func fiveBand(good, fair, moderate, poor float64) []Threshold {
	return []Threshold{
		{Below: good, Band: CategoryBand{Label: LabelGood, Color: colorGood}},
		{Below: fair, Band: CategoryBand{Label: LabelFair, Color: colorFair}},
		{Below: moderate, Band: CategoryBand{Label: LabelModerate, Color: colorModerate}},
		{Below: poor, Band: CategoryBand{Label: LabelPoor, Color: colorPoor}},
		{Below: math.Inf(1), Band: CategoryBand{Label: LabelVeryPoor, Color: colorVeryPoor}},
	}
}

// threeBand builds the Good/Fair/Poor ladder used for pollutants that do not
// contribute to the index.
func threeBand(good, fair float64) []Threshold {
	return []Threshold{
		{Below: good, Band: CategoryBand{Label: LabelGood, Color: colorGood}},
		{Below: fair, Band: CategoryBand{Label: LabelFair, Color: colorFair}},
		{Below: math.Inf(1), Band: CategoryBand{Label: LabelPoor, Color: colorVeryPoor}},
	}
}

// pollutantThresholds are informal display scales in µg/m³, not EPA breakpoints.
var pollutantThresholds = map[Pollutant][]Threshold{
	PollutantSO2:  fiveBand(20, 80, 250, 350),
	PollutantNO2:  fiveBand(40, 70, 150, 200),
	PollutantPM10: fiveBand(20, 50, 100, 200),
	PollutantPM25: fiveBand(10, 25, 50, 75),
	PollutantO3:   fiveBand(60, 100, 140, 180),
	PollutantCO:   fiveBand(4400, 9400, 12400, 15400),
	PollutantNH3:  threeBand(50, 100),
	PollutantNO:   threeBand(25, 50),
}

// Thresholds returns a copy of the ladder for a pollutant.
func Thresholds(p Pollutant) ([]Threshold, bool) {
	ladder, ok := pollutantThresholds[p]
	if !ok {
		return nil, false
	}
	return append([]Threshold(nil), ladder...), true
}

// ClassifyPollutant maps a raw concentration to the pollutant's display band.
// The first band whose bound exceeds the value wins, so a value equal to a
// bound falls into the next band. NaN and unknown pollutants yield NeutralBand.
func ClassifyPollutant(p Pollutant, value float64) CategoryBand {
	if math.IsNaN(value) {
		return NeutralBand
	}
	ladder, ok := pollutantThresholds[p]
	if !ok {
		return NeutralBand
	}
	for _, step := range ladder {
		if value < step.Below {
			return step.Band
		}
	}
	return ladder[len(ladder)-1].Band
}

// FormatConcentration renders a concentration for display. PM2.5 and NO2 keep
// one decimal.
func FormatConcentration(p Pollutant, value float64) string {
	decimals := 0
	if p == PollutantPM25 || p == PollutantNO2 {
		decimals = 1
	}
	return fmt.Sprintf("%.*f µg/m³", decimals, value)
}
