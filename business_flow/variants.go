package businessflow

import (
	"github.com/velora/backoffice/models"
)

// AssignVariant picks the A/B variant for one recipient from a draw in [0, 100).
// The draw is compared against the running sum of variant percentages; the
// first variant whose cumulative share reaches the draw wins. When the
// percentages sum to less than 100 a draw past the last cumulative share
// selects no variant and the recipient receives the base content. That
// remainder acts as an implicit holdout group.
func AssignVariant(draw float64, variants []models.ABVariant) *models.ABVariant {
	cumulative := 0.0
	for i := range variants {
		cumulative += variants[i].Percentage
		if draw <= cumulative {
			return &variants[i]
		}
	}
	return nil
}

// ValidateVariants checks the A/B configuration of a campaign
func ValidateVariants(variants []models.ABVariant) error {
	total := 0.0
	for _, v := range variants {
		if v.Name == "" {
			return ErrVariantNameRequired
		}
		if v.Percentage <= 0 || v.Percentage > 100 {
			return ErrVariantPercentageInvalid
		}
		total += v.Percentage
	}
	if total > 100 {
		return ErrVariantPercentageSum
	}
	return nil
}
