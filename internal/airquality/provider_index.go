package airquality

import "fmt"

var providerBands = [...]CategoryBand{
	{Label: LabelGood, Color: colorGood},
	{Label: LabelFair, Color: colorFair},
	{Label: LabelModerate, Color: colorModerate},
	{Label: LabelPoor, Color: colorPoor},
	{Label: LabelVeryPoor, Color: colorVeryPoor},
}

// CategorizeProviderIndex maps a provider ordinal (1-5) to its band.
// Out-of-range ordinals map to NeutralBand.
func CategorizeProviderIndex(ordinal int) CategoryBand {
	if ValidateProviderIndex(ordinal) != nil {
		return NeutralBand
	}
	return providerBands[ordinal-1]
}

// ValidateProviderIndex reports ErrInvalidOrdinal for values outside 1-5.
func ValidateProviderIndex(ordinal int) error {
	if ordinal < 1 || ordinal > len(providerBands) {
		return fmt.Errorf("%w: %d", ErrInvalidOrdinal, ordinal)
	}
	return nil
}

// ProviderBands returns the bands for ordinals 1 through 5.
func ProviderBands() []CategoryBand {
	return append([]CategoryBand(nil), providerBands[:]...)
}
