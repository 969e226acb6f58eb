package airquality

// CategoryBand is a labeled range with its display color.
type CategoryBand struct {
	Label string
	Color string
}

// NeutralBand is returned for inputs that cannot be categorized, such as
// NaN concentrations or out-of-contract provider ordinals.
var NeutralBand = CategoryBand{Label: LabelGood, Color: "#9E9E9E"}

// Labels shared by the overall index and the per-pollutant scales.
const (
	LabelGood                        = "Good"
	LabelFair                        = "Fair"
	LabelModerate                    = "Moderate"
	LabelPoor                        = "Poor"
	LabelVeryPoor                    = "Very Poor"
	LabelUnhealthyForSensitiveGroups = "Unhealthy for Sensitive Groups"
	LabelUnhealthy                   = "Unhealthy"
	LabelVeryUnhealthy               = "Very Unhealthy"
	LabelHazardous                   = "Hazardous"
)

// IndexCategory is an EPA AQI category.
type IndexCategory string

const (
	CategoryGood                        IndexCategory = "GOOD"
	CategoryModerate                    IndexCategory = "MODERATE"
	CategoryUnhealthyForSensitiveGroups IndexCategory = "UNHEALTHY_FOR_SENSITIVE_GROUPS"
	CategoryUnhealthy                   IndexCategory = "UNHEALTHY"
	CategoryVeryUnhealthy               IndexCategory = "VERY_UNHEALTHY"
	CategoryHazardous                   IndexCategory = "HAZARDOUS"
)

// indexCategory is one row of the overall index category table.
type indexCategory struct {
	category IndexCategory
	max      int // inclusive; the last row is open-ended
	band     CategoryBand
	status   string
	advice   string
}

var indexCategories = [...]indexCategory{
	{
		category: CategoryGood,
		max:      50,
		band:     CategoryBand{Label: LabelGood, Color: "#00E400"},
		status:   "good",
		advice:   "Air quality is good. Perfect day for outdoor activities!",
	},
	{
		category: CategoryModerate,
		max:      100,
		band:     CategoryBand{Label: LabelModerate, Color: "#FFFF00"},
		status:   "moderate",
		advice:   "Air quality is acceptable. Sensitive individuals should limit prolonged outdoor exertion.",
	},
	{
		category: CategoryUnhealthyForSensitiveGroups,
		max:      150,
		band:     CategoryBand{Label: LabelUnhealthyForSensitiveGroups, Color: "#FF7E00"},
		status:   "unhealthy_sensitive",
		advice:   "Unhealthy for sensitive groups. People with heart/lung disease, older adults, and children should reduce outdoor activities.",
	},
	{
		category: CategoryUnhealthy,
		max:      200,
		band:     CategoryBand{Label: LabelUnhealthy, Color: "#FF0000"},
		status:   "unhealthy",
		advice:   "Unhealthy air quality. Everyone should limit outdoor activities. Consider indoor exercise instead.",
	},
	{
		category: CategoryVeryUnhealthy,
		max:      300,
		band:     CategoryBand{Label: LabelVeryUnhealthy, Color: "#8F3F97"},
		status:   "very_unhealthy",
		advice:   "Very unhealthy air. Avoid all outdoor activities. Stay indoors with windows closed.",
	},
	{
		category: CategoryHazardous,
		max:      -1,
		band:     CategoryBand{Label: LabelHazardous, Color: "#7E0023"},
		status:   "hazardous",
		advice:   "Hazardous air quality! Remain indoors and avoid all outdoor activities. Seek medical attention if experiencing symptoms.",
	},
}

// AllIndexCategories returns the categories from best to worst.
func AllIndexCategories() []IndexCategory {
	out := make([]IndexCategory, 0, len(indexCategories))
	for _, c := range indexCategories {
		out = append(out, c.category)
	}
	return out
}

// CategorizeIndex maps an overall index to its category. Each upper bound
// is inclusive: 50 is Good, 51 is Moderate.
func CategorizeIndex(index int) IndexCategory {
	return lookupIndexCategory(index).category
}

func lookupIndexCategory(index int) indexCategory {
	for _, c := range indexCategories[:len(indexCategories)-1] {
		if index <= c.max {
			return c
		}
	}
	return indexCategories[len(indexCategories)-1]
}

func (c IndexCategory) row() (indexCategory, bool) {
	for _, row := range indexCategories {
		if row.category == c {
			return row, true
		}
	}
	return indexCategory{}, false
}

// Band returns the label and color of the category.
func (c IndexCategory) Band() CategoryBand {
	if row, ok := c.row(); ok {
		return row.band
	}
	return NeutralBand
}

// Status returns the snake_case status code used by API clients.
func (c IndexCategory) Status() string {
	if row, ok := c.row(); ok {
		return row.status
	}
	return "unknown"
}

// MaxIndex returns the inclusive upper bound of the category, or -1 for the
// open-ended top category.
func (c IndexCategory) MaxIndex() int {
	if row, ok := c.row(); ok {
		return row.max
	}
	return -1
}

// Recommendation returns health advice for an overall index.
func Recommendation(index int) string {
	return lookupIndexCategory(index).advice
}
