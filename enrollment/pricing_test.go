package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"medimitra-membership-api/models"
)

func TestQuoteNoFamily(t *testing.T) {
	q := Quote(models.AnnualBasePrice, 0)
	assert.Equal(t, 365, q.RawTotal)
	assert.Equal(t, 365, q.DiscountedTotal, "no discount without family members")
}

func TestQuoteOneMember(t *testing.T) {
	q := Quote(models.AnnualBasePrice, 1)
	assert.Equal(t, 730, q.RawTotal)
	assert.Equal(t, 657, q.DiscountedTotal)
}

func TestQuoteTwoMembersRoundsHalfUp(t *testing.T) {
	// 3 * 365 = 1095; 10% off = 985.5, rounded half-up.
	q := Quote(models.AnnualBasePrice, 2)
	assert.Equal(t, 1095, q.RawTotal)
	assert.Equal(t, 986, q.DiscountedTotal)
}

func TestQuoteDraftTracksMemberCount(t *testing.T) {
	d := models.NewEnrollmentDraft()
	assert.Equal(t, 365, QuoteDraft(d).DiscountedTotal)

	assert.NoError(t, resizeFamily(d, 2))
	assert.Equal(t, 986, QuoteDraft(d).DiscountedTotal)

	assert.NoError(t, resizeFamily(d, 0))
	assert.Equal(t, 365, QuoteDraft(d).DiscountedTotal, "quote is recomputed, never cached")
}
