package enrollment

import (
	"fmt"
	"strconv"

	"medimitra-membership-api/models"
	"medimitra-membership-api/utils"
)

// Draft field names. These double as the field-error keys.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phoneNumber"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Family member field names.
const (
	MemberFieldName         = "name"
	MemberFieldAge          = "age"
	MemberFieldGender       = "gender"
	MemberFieldRelationship = "relationship"
)

// applyField writes one named field into the draft. Phone numbers are stored
// digits-only, truncated to 10 digits.
func applyField(d *models.EnrollmentDraft, field, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.PhoneNumber = utils.NormalizePhone(value)
	case FieldPassword:
		d.Password = value
	case FieldConfirmPassword:
		d.ConfirmPassword = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// resizeFamily grows or truncates the members slice to n, preserving existing
// entries by index. Growth appends blank members; truncation silently discards
// trailing ones. Afterwards len(FamilyMembers) == FamilyMemberCount always
// holds.
func resizeFamily(d *models.EnrollmentDraft, n int) error {
	if n < 0 || n > models.MaxFamilyMembers {
		return fmt.Errorf("%w: %d", ErrMemberCount, n)
	}
	switch {
	case n < len(d.FamilyMembers):
		d.FamilyMembers = d.FamilyMembers[:n]
	case n > len(d.FamilyMembers):
		for len(d.FamilyMembers) < n {
			d.FamilyMembers = append(d.FamilyMembers, models.FamilyMember{})
		}
	}
	d.FamilyMemberCount = n
	return nil
}

// applyMemberField mutates one family member in place. Age is coerced to a
// number; an unparseable age stores zero, matching the text-input behaviour.
func applyMemberField(d *models.EnrollmentDraft, index int, field, value string) error {
	if index < 0 || index >= len(d.FamilyMembers) {
		return fmt.Errorf("%w: %d", ErrMemberIndex, index)
	}
	m := &d.FamilyMembers[index]
	switch field {
	case MemberFieldName:
		m.Name = value
	case MemberFieldAge:
		age, err := strconv.Atoi(value)
		if err != nil {
			age = 0
		}
		m.Age = age
	case MemberFieldGender:
		m.Gender = value
	case MemberFieldRelationship:
		m.Relationship = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}
