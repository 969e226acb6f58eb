package handler

import (
	"math"
	"net/http"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/api/models"
	"github.com/airwise/airwise/internal/api/response"
)

// MetadataHandler serves the static tables behind the index.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		Pollutants:          toPollutants(airquality.AllPollutants()),
		RegulatedPollutants: toPollutants(airquality.RegulatedPollutants()),
		Categories:          make([]string, 0, len(airquality.AllIndexCategories())),
		ProviderOrdinals:    make([]int, 0, len(airquality.ProviderBands())),
	}
	for _, c := range airquality.AllIndexCategories() {
		enums.Categories = append(enums.Categories, string(c))
	}
	for i := range airquality.ProviderBands() {
		enums.ProviderOrdinals = append(enums.ProviderOrdinals, i+1)
	}
	response.JSON(w, r, http.StatusOK, enums)
}

// GetBreakpoints handles GET /v1/metadata/breakpoints - EPA breakpoint tables and categories.
func (h *MetadataHandler) GetBreakpoints(w http.ResponseWriter, r *http.Request) {
	resp := models.Breakpoints{
		IndexBreakpoints: airquality.IndexBreakpoints(),
	}
	for _, t := range airquality.BreakpointTables() {
		resp.Tables = append(resp.Tables, models.BreakpointTable{
			Pollutant:      models.Pollutant(t.Pollutant()),
			Unit:           t.Unit(),
			Concentrations: t.Concentrations(),
		})
	}
	for _, c := range airquality.AllIndexCategories() {
		info := models.CategoryInfo{
			Category: string(c),
			Status:   c.Status(),
			Band:     toBand(c.Band()),
		}
		if upper := c.MaxIndex(); upper >= 0 {
			info.MaxIndex = &upper
			info.Recommendation = airquality.Recommendation(upper)
		} else {
			info.Recommendation = airquality.Recommendation(math.MaxInt32)
		}
		resp.Categories = append(resp.Categories, info)
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	response.JSON(w, r, http.StatusOK, resp)
}

// GetThresholds handles GET /v1/metadata/thresholds - per-pollutant display ladders.
func (h *MetadataHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	var resp models.Thresholds
	for _, p := range airquality.AllPollutants() {
		ladder, ok := airquality.Thresholds(p)
		if !ok {
			continue
		}
		pt := models.PollutantThresholds{Pollutant: models.Pollutant(p)}
		for _, step := range ladder {
			pt.Thresholds = append(pt.Thresholds, models.Threshold{
				Below: finite(step.Below),
				Band:  toBand(step.Band),
			})
		}
		resp.Pollutants = append(resp.Pollutants, pt)
	}
	for i, b := range airquality.ProviderBands() {
		resp.ProviderBands = append(resp.ProviderBands, models.ProviderIndexBand{
			Ordinal: i + 1,
			Valid:   true,
			Band:    toBand(b),
		})
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	response.JSON(w, r, http.StatusOK, resp)
}

func toPollutants(ps []airquality.Pollutant) []models.Pollutant {
	out := make([]models.Pollutant, 0, len(ps))
	for _, p := range ps {
		out = append(out, models.Pollutant(p))
	}
	return out
}
