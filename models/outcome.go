package models

// Outcome kinds.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Dialog titles for terminal payment events.
const (
	TitlePaymentCancelled   = "Payment Cancelled"
	TitlePaymentFailed      = "Payment Failed"
	TitleVerificationFailed = "Payment Verification Failed"
	TitleRegistrationFailed = "Registration Failed"
	TitlePaymentError       = "Payment Error"
	TitlePaymentSuccess     = "Membership Activated"
)

// OutcomeRecord is the terminal dialog payload for one payment attempt.
// A session holds at most one; any later terminal event overwrites it.
// The correlation ids exist so support staff can reconcile a charge with an
// account when the automated flow could not.
type OutcomeRecord struct {
	Kind              string `json:"kind"`
	Title             string `json:"title"`
	Message           string `json:"message"`
	PaymentID         string `json:"payment_id,omitempty"`
	OrderID           string `json:"order_id,omitempty"`
	Amount            int64  `json:"amount,omitempty"`
	Plan              string `json:"plan,omitempty"`
	FamilyMemberCount int    `json:"family_member_count,omitempty"`
	MembershipID      string `json:"membership_id,omitempty"`
}
