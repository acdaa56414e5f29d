package enrollment

import (
	"medimitra-membership-api/models"
	"medimitra-membership-api/utils"
)

// Quote derives the order total for one primary member plus memberCount
// family members: base price per head, then a flat 10% discount on the whole
// total once any family member is enrolled. Totals are whole rupees, rounded
// half-up. Pure function; callers recompute it on every read rather than
// caching it across a member-count change.
func Quote(basePrice, memberCount int) models.PriceQuote {
	raw := basePrice * (1 + memberCount)
	discounted := raw
	if memberCount > 0 {
		discounted = utils.RoundRupees(float64(raw) * (1 - float64(models.FamilyDiscountPercent)/100))
	}
	return models.PriceQuote{
		RawTotal:        raw,
		DiscountedTotal: discounted,
	}
}

// QuoteDraft prices the current draft.
func QuoteDraft(d *models.EnrollmentDraft) models.PriceQuote {
	return Quote(models.AnnualBasePrice, d.FamilyMemberCount)
}
