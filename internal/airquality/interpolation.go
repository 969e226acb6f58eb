package airquality

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnregulatedPollutant is returned when a pollutant has no EPA breakpoint table.
var ErrUnregulatedPollutant = errors.New("pollutant has no breakpoint table")

// MaxSubIndex caps extrapolated sub-indices so they always fit an int and
// stay ordered. Readings this high are reported as Hazardous.
const MaxSubIndex = math.MaxInt32

// indexBreakpoints are the AQI values shared by every breakpoint table.
var indexBreakpoints = [...]float64{0, 50, 100, 150, 200, 300, 400, 500}

// BreakpointTable maps a pollutant's concentration to its AQI sub-index.
// Tables are package-level values and are never mutated after init.
type BreakpointTable struct {
	pollutant      Pollutant
	unit           string
	concentrations [len(indexBreakpoints)]float64
	convert        func(float64) float64
}

// Interval is one linear segment of a breakpoint table.
type Interval struct {
	ConcLo  float64
	ConcHi  float64
	IndexLo float64
	IndexHi float64
}

func identity(v float64) float64 { return v }

var breakpointTables = [...]BreakpointTable{
	{
		pollutant:      PollutantPM25,
		unit:           "µg/m³",
		concentrations: [...]float64{0, 12.0, 35.4, 55.4, 150.4, 250.4, 350.4, 500.4},
		convert:        identity,
	},
	{
		pollutant:      PollutantPM10,
		unit:           "µg/m³",
		concentrations: [...]float64{0, 54, 154, 254, 354, 424, 504, 604},
		convert:        identity,
	},
	{
		// µg/m³ to an approximate ppb.
		pollutant:      PollutantO3,
		unit:           "ppb",
		concentrations: [...]float64{0, 54, 70, 85, 105, 200, 300, 400},
		convert:        func(v float64) float64 { return v * 0.5 },
	},
	{
		pollutant:      PollutantNO2,
		unit:           "µg/m³",
		concentrations: [...]float64{0, 53, 100, 360, 649, 1249, 1649, 2049},
		convert:        identity,
	},
	{
		pollutant:      PollutantSO2,
		unit:           "µg/m³",
		concentrations: [...]float64{0, 35, 75, 185, 304, 604, 804, 1004},
		convert:        identity,
	},
	{
		// µg/m³ to ppm.
		pollutant:      PollutantCO,
		unit:           "ppm",
		concentrations: [...]float64{0, 4.4, 9.4, 12.4, 15.4, 30.4, 40.4, 50.4},
		convert:        func(v float64) float64 { return v / 1000 },
	},
}

// BreakpointTables returns the tables of all regulated pollutants.
func BreakpointTables() []BreakpointTable {
	return append([]BreakpointTable(nil), breakpointTables[:]...)
}

// TableFor returns the breakpoint table for a pollutant.
func TableFor(p Pollutant) (BreakpointTable, bool) {
	for _, t := range breakpointTables {
		if t.pollutant == p {
			return t, true
		}
	}
	return BreakpointTable{}, false
}

// IndexBreakpoints returns the AQI breakpoints shared by all tables.
func IndexBreakpoints() []float64 {
	return append([]float64(nil), indexBreakpoints[:]...)
}

// Pollutant returns the pollutant this table applies to.
func (t BreakpointTable) Pollutant() Pollutant { return t.pollutant }

// Unit returns the unit the concentration breakpoints are expressed in.
func (t BreakpointTable) Unit() string { return t.unit }

// Concentrations returns a copy of the concentration breakpoints.
func (t BreakpointTable) Concentrations() []float64 {
	return append([]float64(nil), t.concentrations[:]...)
}

// Convert converts a µg/m³ concentration into the table's unit.
func (t BreakpointTable) Convert(v float64) float64 {
	if t.convert == nil {
		return v
	}
	return t.convert(v)
}

// Interval returns the first interval containing v, both ends inclusive, so
// a value on a breakpoint belongs to the lower interval. Values above the
// last breakpoint get the last interval together with
// ErrBreakpointTableExhausted; callers extrapolate along it.
func (t BreakpointTable) Interval(v float64) (Interval, error) {
	if !validConcentration(v) {
		return Interval{}, &InvalidReadingError{Pollutant: t.pollutant, Value: v}
	}

	last := len(t.concentrations) - 2
	for i := 0; i <= last; i++ {
		if v >= t.concentrations[i] && v <= t.concentrations[i+1] {
			return t.interval(i), nil
		}
	}
	return t.interval(last), ErrBreakpointTableExhausted
}

func (t BreakpointTable) interval(i int) Interval {
	return Interval{
		ConcLo:  t.concentrations[i],
		ConcHi:  t.concentrations[i+1],
		IndexLo: indexBreakpoints[i],
		IndexHi: indexBreakpoints[i+1],
	}
}

// Interpolate evaluates the interval's line at v.
func (iv Interval) Interpolate(v float64) float64 {
	return (iv.IndexHi-iv.IndexLo)/(iv.ConcHi-iv.ConcLo)*(v-iv.ConcLo) + iv.IndexLo
}

// SubIndex is the AQI computed for a single pollutant.
type SubIndex struct {
	Pollutant Pollutant

	// Concentration is the raw value in µg/m³.
	Concentration float64

	// Converted is the concentration in the table's unit.
	Converted float64

	// Exact is the interpolated value before rounding, capped at MaxSubIndex.
	Exact float64

	// Index is Exact rounded half away from zero.
	Index int

	// Extrapolated is set when the concentration exceeded the table.
	Extrapolated bool
}

// ComputeSubIndex computes the sub-index of one regulated pollutant.
func ComputeSubIndex(p Pollutant, concentration float64) (SubIndex, error) {
	table, ok := TableFor(p)
	if !ok {
		return SubIndex{}, fmt.Errorf("%w: %s", ErrUnregulatedPollutant, p)
	}
	if !validConcentration(concentration) {
		return SubIndex{}, &InvalidReadingError{Pollutant: p, Value: concentration}
	}

	converted := table.Convert(concentration)
	iv, err := table.Interval(converted)
	extrapolated := false
	if err != nil {
		if !errors.Is(err, ErrBreakpointTableExhausted) {
			return SubIndex{}, err
		}
		extrapolated = true
	}

	exact := math.Min(iv.Interpolate(converted), MaxSubIndex)
	return SubIndex{
		Pollutant:     p,
		Concentration: concentration,
		Converted:     converted,
		Exact:         exact,
		Index:         int(math.Round(exact)),
		Extrapolated:  extrapolated,
	}, nil
}

// ComputedIndex is the overall EPA index for a reading.
type ComputedIndex struct {
	// Value is the maximum sub-index.
	Value int

	Category IndexCategory
	Band     CategoryBand

	// Dominant is the pollutant that produced Value. Empty when no
	// regulated pollutant had a valid concentration.
	Dominant Pollutant

	// SubIndices holds one entry per valid regulated pollutant.
	SubIndices []SubIndex

	// Extrapolated lists pollutants whose concentration exceeded their table.
	Extrapolated []Pollutant
}

// SubIndex returns the sub-index for a pollutant, if it was computed.
func (c ComputedIndex) SubIndex(p Pollutant) (SubIndex, bool) {
	for _, si := range c.SubIndices {
		if si.Pollutant == p {
			return si, true
		}
	}
	return SubIndex{}, false
}

// ComputeOverallIndex computes the EPA index of a reading as the maximum
// sub-index of the regulated pollutants.
//
// An invalid reading returns an error matching ErrInvalidReading together
// with a best-effort index built from the valid pollutants only. With no
// valid pollutant the result is 0 (Good).
func ComputeOverallIndex(r Reading) (ComputedIndex, error) {
	validationErr := r.Validate()

	result := ComputedIndex{
		SubIndices: make([]SubIndex, 0, len(breakpointTables)),
	}
	best := -1

	for _, p := range RegulatedPollutants() {
		si, err := ComputeSubIndex(p, r.Value(p))
		if err != nil {
			continue
		}
		result.SubIndices = append(result.SubIndices, si)
		if si.Extrapolated {
			result.Extrapolated = append(result.Extrapolated, p)
		}
		if si.Index > best {
			best = si.Index
			result.Dominant = p
		}
	}

	if best > 0 {
		result.Value = best
	}
	result.Category = CategorizeIndex(result.Value)
	result.Band = result.Category.Band()

	return result, validationErr
}
