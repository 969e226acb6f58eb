package airquality_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwise/airwise/internal/airquality"
)

func TestComputeSubIndex_Breakpoints(t *testing.T) {
	tests := []struct {
		name          string
		pollutant     airquality.Pollutant
		concentration float64
		expected      int
	}{
		{"PM2.5 zero", airquality.PollutantPM25, 0, 0},
		{"PM2.5 upper bound of good", airquality.PollutantPM25, 12.0, 50},
		{"PM2.5 upper bound of moderate", airquality.PollutantPM25, 35.4, 100},
		{"PM2.5 upper bound of sensitive", airquality.PollutantPM25, 55.4, 150},
		{"PM10 mid good", airquality.PollutantPM10, 27, 25},
		{"PM10 rounds half away from zero", airquality.PollutantPM10, 55, 51},
		{"PM10 upper bound of moderate", airquality.PollutantPM10, 154, 100},
		{"O3 converted to ppb", airquality.PollutantO3, 120, 69},
		{"O3 upper bound of good", airquality.PollutantO3, 108, 50},
		{"NO2 upper bound of good", airquality.PollutantNO2, 53, 50},
		{"SO2 upper bound of moderate", airquality.PollutantSO2, 75, 100},
		{"CO converted to ppm", airquality.PollutantCO, 9400, 100},
		{"CO upper bound of good", airquality.PollutantCO, 4400, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			si, err := airquality.ComputeSubIndex(tt.pollutant, tt.concentration)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, si.Index)
			assert.Equal(t, tt.pollutant, si.Pollutant)
			assert.Equal(t, tt.concentration, si.Concentration)
			assert.False(t, si.Extrapolated)
		})
	}
}

func TestComputeSubIndex_JustAboveBreakpoint(t *testing.T) {
	si, err := airquality.ComputeSubIndex(airquality.PollutantPM25, 12.1)
	require.NoError(t, err)

	// The unrounded value sits in the moderate interval but rounds back to 50.
	assert.Greater(t, si.Exact, 50.0)
	assert.LessOrEqual(t, si.Exact, 100.0)
	assert.Equal(t, 50, si.Index)
}

func TestComputeSubIndex_Conversion(t *testing.T) {
	o3, err := airquality.ComputeSubIndex(airquality.PollutantO3, 100)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, o3.Converted, 1e-9)

	co, err := airquality.ComputeSubIndex(airquality.PollutantCO, 2500)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, co.Converted, 1e-9)
}

func TestComputeSubIndex_Extrapolates(t *testing.T) {
	si, err := airquality.ComputeSubIndex(airquality.PollutantPM25, 600)
	require.NoError(t, err)

	assert.True(t, si.Extrapolated)
	assert.InDelta(t, 566.4, si.Exact, 1e-6)
	assert.Equal(t, 566, si.Index)
}

func TestComputeSubIndex_ExtremeConcentrationsSaturate(t *testing.T) {
	tests := []struct {
		name          string
		pollutant     airquality.Pollutant
		concentration float64
	}{
		{"pm2.5 2e19", airquality.PollutantPM25, 2e19},
		{"pm2.5 1e30", airquality.PollutantPM25, 1e30},
		{"pm10 1e307", airquality.PollutantPM10, 1e307},
		{"o3 max float", airquality.PollutantO3, math.MaxFloat64},
		{"co 1e300", airquality.PollutantCO, 1e300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			si, err := airquality.ComputeSubIndex(tt.pollutant, tt.concentration)
			require.NoError(t, err)

			assert.True(t, si.Extrapolated)
			assert.False(t, math.IsInf(si.Exact, 0))
			assert.Equal(t, float64(airquality.MaxSubIndex), si.Exact)
			assert.Equal(t, airquality.MaxSubIndex, si.Index)
		})
	}
}

func TestComputeSubIndex_ExtrapolationStaysMonotonic(t *testing.T) {
	concentrations := []float64{500.4, 600, 1e4, 1e9, 1e15, 2e19, 1e30, 1e307}

	prev := -1
	for _, c := range concentrations {
		si, err := airquality.ComputeSubIndex(airquality.PollutantPM25, c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, si.Index, prev, "concentration %g", c)
		assert.LessOrEqual(t, si.Index, airquality.MaxSubIndex)
		prev = si.Index
	}
}

func TestComputeSubIndex_Errors(t *testing.T) {
	t.Run("unregulated pollutant", func(t *testing.T) {
		_, err := airquality.ComputeSubIndex(airquality.PollutantNH3, 10)
		assert.ErrorIs(t, err, airquality.ErrUnregulatedPollutant)
	})

	t.Run("negative concentration", func(t *testing.T) {
		_, err := airquality.ComputeSubIndex(airquality.PollutantPM10, -1)
		assert.ErrorIs(t, err, airquality.ErrInvalidReading)
	})

	t.Run("NaN concentration", func(t *testing.T) {
		_, err := airquality.ComputeSubIndex(airquality.PollutantO3, math.NaN())
		assert.ErrorIs(t, err, airquality.ErrInvalidReading)

		var readingErr *airquality.InvalidReadingError
		require.True(t, errors.As(err, &readingErr))
		assert.Equal(t, airquality.PollutantO3, readingErr.Pollutant)
	})
}

func TestBreakpointTable_Interval(t *testing.T) {
	table, ok := airquality.TableFor(airquality.PollutantPM25)
	require.True(t, ok)

	t.Run("breakpoint belongs to lower interval", func(t *testing.T) {
		iv, err := table.Interval(12.0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, iv.ConcLo)
		assert.Equal(t, 12.0, iv.ConcHi)
		assert.Equal(t, 50.0, iv.IndexHi)
	})

	t.Run("above table returns last interval", func(t *testing.T) {
		iv, err := table.Interval(501)
		assert.ErrorIs(t, err, airquality.ErrBreakpointTableExhausted)
		assert.Equal(t, 350.4, iv.ConcLo)
		assert.Equal(t, 500.4, iv.ConcHi)
		assert.Equal(t, 400.0, iv.IndexLo)
		assert.Equal(t, 500.0, iv.IndexHi)
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := table.Interval(math.Inf(1))
		assert.ErrorIs(t, err, airquality.ErrInvalidReading)
	})
}

func TestBreakpointTables(t *testing.T) {
	tables := airquality.BreakpointTables()
	require.Len(t, tables, len(airquality.RegulatedPollutants()))

	indexBreakpoints := airquality.IndexBreakpoints()
	assert.Equal(t, []float64{0, 50, 100, 150, 200, 300, 400, 500}, indexBreakpoints)

	for _, table := range tables {
		concentrations := table.Concentrations()
		assert.Len(t, concentrations, len(indexBreakpoints), table.Pollutant())
		for i := 1; i < len(concentrations); i++ {
			assert.Greater(t, concentrations[i], concentrations[i-1], "%s breakpoints must increase", table.Pollutant())
		}
		assert.NotEmpty(t, table.Unit())
	}

	// Mutating a returned copy leaves the table intact.
	pm25, _ := airquality.TableFor(airquality.PollutantPM25)
	c := pm25.Concentrations()
	c[1] = 999
	assert.Equal(t, 12.0, pm25.Concentrations()[1])

	_, ok := airquality.TableFor(airquality.PollutantNO)
	assert.False(t, ok)
}

func TestComputeSubIndex_Monotonic(t *testing.T) {
	for _, table := range airquality.BreakpointTables() {
		p := table.Pollutant()
		t.Run(string(p), func(t *testing.T) {
			concentrations := table.Concentrations()
			top := concentrations[len(concentrations)-1]
			// Sweep in raw µg/m³, past the end of the table.
			rawTop := top * 1.2
			if p == airquality.PollutantO3 {
				rawTop = top * 2 * 1.2
			}
			if p == airquality.PollutantCO {
				rawTop = top * 1000 * 1.2
			}

			step := rawTop / 500
			prev := -1.0
			for c := 0.0; c <= rawTop; c += step {
				si, err := airquality.ComputeSubIndex(p, c)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, si.Exact, prev, "concentration %v", c)
				prev = si.Exact
			}
		})
	}
}

func TestComputeOverallIndex(t *testing.T) {
	tests := []struct {
		name             string
		reading          airquality.Reading
		expectedValue    int
		expectedCategory airquality.IndexCategory
		expectedDominant airquality.Pollutant
	}{
		{
			name:             "all zero",
			reading:          airquality.Reading{},
			expectedValue:    0,
			expectedCategory: airquality.CategoryGood,
			expectedDominant: airquality.PollutantPM25,
		},
		{
			name:             "PM2.5 dominates PM10",
			reading:          airquality.Reading{PM25: 35.4, PM10: 50},
			expectedValue:    100,
			expectedCategory: airquality.CategoryModerate,
			expectedDominant: airquality.PollutantPM25,
		},
		{
			name:             "CO dominates",
			reading:          airquality.Reading{PM25: 5, CO: 9400, NH3: 500, NO: 300},
			expectedValue:    100,
			expectedCategory: airquality.CategoryModerate,
			expectedDominant: airquality.PollutantCO,
		},
		{
			name:             "unhealthy ozone",
			reading:          airquality.Reading{O3: 200, PM25: 8},
			expectedValue:    188,
			expectedCategory: airquality.CategoryUnhealthy,
			expectedDominant: airquality.PollutantO3,
		},
		{
			name:             "tie keeps the first regulated pollutant",
			reading:          airquality.Reading{PM25: 12.0, NO2: 53},
			expectedValue:    50,
			expectedCategory: airquality.CategoryGood,
			expectedDominant: airquality.PollutantPM25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := airquality.ComputeOverallIndex(tt.reading)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedValue, result.Value)
			assert.Equal(t, tt.expectedCategory, result.Category)
			assert.Equal(t, tt.expectedCategory.Band(), result.Band)
			assert.Equal(t, tt.expectedDominant, result.Dominant)
			assert.Len(t, result.SubIndices, len(airquality.RegulatedPollutants()))
			assert.Empty(t, result.Extrapolated)
		})
	}
}

func TestComputeOverallIndex_IsMaxOfSubIndices(t *testing.T) {
	readings := []airquality.Reading{
		{CO: 201.94, NO: 0.02, NO2: 0.77, O3: 68.66, SO2: 0.64, PM25: 0.5, PM10: 0.54, NH3: 0.12},
		{CO: 3400, NO2: 120, O3: 90, SO2: 40, PM25: 20, PM10: 80},
		{PM25: 160, PM10: 300, O3: 150},
		{SO2: 700, NO2: 10},
	}

	for _, reading := range readings {
		result, err := airquality.ComputeOverallIndex(reading)
		require.NoError(t, err)

		highest := 0
		for _, p := range airquality.RegulatedPollutants() {
			si, err := airquality.ComputeSubIndex(p, reading.Value(p))
			require.NoError(t, err)
			if si.Index > highest {
				highest = si.Index
			}

			fromResult, ok := result.SubIndex(p)
			require.True(t, ok)
			assert.Equal(t, si, fromResult)
		}
		assert.Equal(t, highest, result.Value)

		// Same input, same output.
		again, err := airquality.ComputeOverallIndex(reading)
		require.NoError(t, err)
		assert.Equal(t, result, again)
	}
}

func TestComputeOverallIndex_Extrapolated(t *testing.T) {
	result, err := airquality.ComputeOverallIndex(airquality.Reading{PM25: 600, PM10: 20})
	require.NoError(t, err)

	assert.Equal(t, 566, result.Value)
	assert.Equal(t, airquality.CategoryHazardous, result.Category)
	assert.Equal(t, []airquality.Pollutant{airquality.PollutantPM25}, result.Extrapolated)
}

func TestComputeOverallIndex_ExtremeReadingIsHazardous(t *testing.T) {
	tests := []struct {
		name     string
		reading  airquality.Reading
		dominant airquality.Pollutant
	}{
		{"pm2.5 2e19", airquality.Reading{PM25: 2e19, PM10: 10}, airquality.PollutantPM25},
		{"pm2.5 1e30", airquality.Reading{PM25: 1e30}, airquality.PollutantPM25},
		{"pm10 1e307", airquality.Reading{PM25: 12, PM10: 1e307}, airquality.PollutantPM10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := airquality.ComputeOverallIndex(tt.reading)
			require.NoError(t, err)

			assert.Equal(t, airquality.MaxSubIndex, result.Value)
			assert.Equal(t, airquality.CategoryHazardous, result.Category)
			assert.NotEqual(t, airquality.CategoryGood, result.Category)
			assert.Equal(t, tt.dominant, result.Dominant)
			assert.Contains(t, result.Extrapolated, tt.dominant)
		})
	}
}

func TestComputeOverallIndex_InvalidReading(t *testing.T) {
	t.Run("NaN is skipped with best-effort result", func(t *testing.T) {
		result, err := airquality.ComputeOverallIndex(airquality.Reading{PM25: math.NaN(), PM10: 55})
		require.Error(t, err)
		assert.ErrorIs(t, err, airquality.ErrInvalidReading)

		var readingErr *airquality.InvalidReadingError
		require.True(t, errors.As(err, &readingErr))
		assert.Equal(t, airquality.PollutantPM25, readingErr.Pollutant)

		assert.Equal(t, 51, result.Value)
		assert.Equal(t, airquality.PollutantPM10, result.Dominant)
		_, ok := result.SubIndex(airquality.PollutantPM25)
		assert.False(t, ok)
	})

	t.Run("negative reports first pollutant in display order", func(t *testing.T) {
		_, err := airquality.ComputeOverallIndex(airquality.Reading{CO: -1, PM25: -3})

		var readingErr *airquality.InvalidReadingError
		require.True(t, errors.As(err, &readingErr))
		assert.Equal(t, airquality.PollutantCO, readingErr.Pollutant)
		assert.Equal(t, -1.0, readingErr.Value)
	})

	t.Run("invalid unregulated pollutant still reports", func(t *testing.T) {
		result, err := airquality.ComputeOverallIndex(airquality.Reading{NH3: math.Inf(1), PM25: 12})
		assert.ErrorIs(t, err, airquality.ErrInvalidReading)
		assert.Equal(t, 50, result.Value)
	})

	t.Run("nothing valid is good", func(t *testing.T) {
		nan := math.NaN()
		result, err := airquality.ComputeOverallIndex(airquality.Reading{
			CO: nan, NO2: nan, O3: nan, SO2: nan, PM25: nan, PM10: nan,
		})
		assert.ErrorIs(t, err, airquality.ErrInvalidReading)
		assert.Equal(t, 0, result.Value)
		assert.Equal(t, airquality.CategoryGood, result.Category)
		assert.Empty(t, result.Dominant)
		assert.Empty(t, result.SubIndices)
	})
}
