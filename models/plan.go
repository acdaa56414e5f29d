package models

// PlanAnnual is the only plan currently sold: one year of membership at a
// flat base price, extended to every enrolled family member.
const PlanAnnual = "annual"

// AnnualBasePrice is the per-person yearly price in whole rupees.
const AnnualBasePrice = 365

// FamilyDiscountPercent is the flat discount applied to the whole order
// when at least one family member is enrolled.
const FamilyDiscountPercent = 10

// Plan describes a sellable membership plan for the catalog endpoint.
type Plan struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BasePrice      int    `json:"base_price"`
	Currency       string `json:"currency"`
	DurationDays   int    `json:"duration_days"`
	FamilyDiscount int    `json:"family_discount_percent"`
	MaxFamilyCount int    `json:"max_family_members"`
	Description    string `json:"description"`
}

// PriceQuote is the order total derived from the current draft. It is a pure
// function of the draft and is recomputed on every read, never stored.
type PriceQuote struct {
	RawTotal        int `json:"raw_total"`
	DiscountedTotal int `json:"discounted_total"`
}
