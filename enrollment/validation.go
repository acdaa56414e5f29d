package enrollment

import (
	"context"

	"medimitra-membership-api/models"
	"medimitra-membership-api/utils"
)

// EmailChecker is the slice of the remote gateway the validation rules need:
// the asynchronous email-uniqueness lookup.
type EmailChecker interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
}

// FieldError is a single recoverable field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// ValidatePersonalDetails runs the synchronous personal-details checks in
// order, stopping at the first failure so only one error surfaces per
// submission attempt. A nil return means the form passed every local check;
// the email-uniqueness lookup runs separately.
func ValidatePersonalDetails(d *models.EnrollmentDraft) *FieldError {
	if d.Name == "" {
		return &FieldError{FieldName, "Please enter your full name"}
	}
	if d.PhoneNumber == "" {
		return &FieldError{FieldPhone, "Please enter your mobile number"}
	}
	if !utils.IsValidPhone(d.PhoneNumber) {
		return &FieldError{FieldPhone, "Mobile number must be exactly 10 digits"}
	}
	if d.Email == "" {
		return &FieldError{FieldEmail, "Please enter your email address"}
	}
	if d.Password == "" {
		return &FieldError{FieldPassword, "Please choose a password"}
	}
	if d.Password != d.ConfirmPassword {
		return &FieldError{FieldConfirmPassword, "Passwords do not match"}
	}
	return nil
}
