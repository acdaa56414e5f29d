package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimitra-membership-api/models"
)

func TestApplyFieldNormalizesPhone(t *testing.T) {
	d := models.NewEnrollmentDraft()
	require.NoError(t, applyField(d, FieldPhone, "98-765 43210x"))
	assert.Equal(t, "9876543210", d.PhoneNumber)
}

func TestApplyFieldUnknown(t *testing.T) {
	d := models.NewEnrollmentDraft()
	err := applyField(d, "nickname", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestResizeFamilyGrowsWithBlankMembers(t *testing.T) {
	d := models.NewEnrollmentDraft()
	require.NoError(t, resizeFamily(d, 3))

	assert.Equal(t, 3, d.FamilyMemberCount)
	require.Len(t, d.FamilyMembers, 3)
	for _, m := range d.FamilyMembers {
		assert.Equal(t, models.FamilyMember{}, m)
	}
}

func TestResizeFamilyPreservesEntriesByIndex(t *testing.T) {
	d := models.NewEnrollmentDraft()
	require.NoError(t, resizeFamily(d, 2))
	require.NoError(t, applyMemberField(d, 0, MemberFieldName, "Asha"))
	require.NoError(t, applyMemberField(d, 1, MemberFieldName, "Ravi"))

	// Truncating drops the tail; growing back yields a blank slot, not Ravi.
	require.NoError(t, resizeFamily(d, 1))
	require.Len(t, d.FamilyMembers, 1)
	assert.Equal(t, "Asha", d.FamilyMembers[0].Name)

	require.NoError(t, resizeFamily(d, 2))
	assert.Equal(t, "Asha", d.FamilyMembers[0].Name)
	assert.Equal(t, "", d.FamilyMembers[1].Name)
}

func TestResizeFamilyBounds(t *testing.T) {
	d := models.NewEnrollmentDraft()
	assert.ErrorIs(t, resizeFamily(d, -1), ErrMemberCount)
	assert.ErrorIs(t, resizeFamily(d, models.MaxFamilyMembers+1), ErrMemberCount)
	assert.NoError(t, resizeFamily(d, models.MaxFamilyMembers))
}

func TestApplyMemberFieldAgeCoercion(t *testing.T) {
	d := models.NewEnrollmentDraft()
	require.NoError(t, resizeFamily(d, 1))

	require.NoError(t, applyMemberField(d, 0, MemberFieldAge, "42"))
	assert.Equal(t, 42, d.FamilyMembers[0].Age)

	require.NoError(t, applyMemberField(d, 0, MemberFieldAge, "not-a-number"))
	assert.Equal(t, 0, d.FamilyMembers[0].Age)
}

func TestApplyMemberFieldIndexOutOfRange(t *testing.T) {
	d := models.NewEnrollmentDraft()
	require.NoError(t, resizeFamily(d, 1))

	assert.ErrorIs(t, applyMemberField(d, 1, MemberFieldName, "x"), ErrMemberIndex)
	assert.ErrorIs(t, applyMemberField(d, -1, MemberFieldName, "x"), ErrMemberIndex)
}

func TestValidatePersonalDetailsOrder(t *testing.T) {
	d := models.NewEnrollmentDraft()

	fe := ValidatePersonalDetails(d)
	require.NotNil(t, fe)
	assert.Equal(t, FieldName, fe.Field)

	d.Name = "Priya Sharma"
	fe = ValidatePersonalDetails(d)
	require.NotNil(t, fe)
	assert.Equal(t, FieldPhone, fe.Field)

	d.PhoneNumber = "98765"
	fe = ValidatePersonalDetails(d)
	require.NotNil(t, fe)
	assert.Equal(t, FieldPhone, fe.Field)

	d.PhoneNumber = "9876543210"
	fe = ValidatePersonalDetails(d)
	require.NotNil(t, fe)
	assert.Equal(t, FieldEmail, fe.Field)

	d.Email = "priya@example.com"
	fe = ValidatePersonalDetails(d)
	require.NotNil(t, fe)
	assert.Equal(t, FieldPassword, fe.Field)

	d.Password = "secret123"
	d.ConfirmPassword = "secret124"
	fe = ValidatePersonalDetails(d)
	require.NotNil(t, fe)
	assert.Equal(t, FieldConfirmPassword, fe.Field)

	d.ConfirmPassword = "secret123"
	assert.Nil(t, ValidatePersonalDetails(d))
}
