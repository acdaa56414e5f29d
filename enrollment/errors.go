package enrollment

import "errors"

var (
	// ErrValidation blocks a forward step transition; the offending field and
	// message are recorded on the session's field errors.
	ErrValidation = errors.New("validation failed")

	// ErrEmailCheckUnavailable is a blocking failure of the email-uniqueness
	// lookup. It sets no field error; the session notice carries the message.
	ErrEmailCheckUnavailable = errors.New("email availability check unavailable")

	// ErrUnknownField is returned for a draft field this store does not hold.
	ErrUnknownField = errors.New("unknown draft field")

	// ErrMemberCount is returned when the requested family member count is
	// outside 0..10.
	ErrMemberCount = errors.New("family member count out of range")

	// ErrMemberIndex is returned for an update to a family member slot that
	// does not exist at the current count.
	ErrMemberIndex = errors.New("family member index out of range")
)
