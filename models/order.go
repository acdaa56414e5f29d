package models

// TempUser is the registration payload echoed back by the order-creation
// service: the draft minus the confirm-password field, the plan selector and
// the family members. It is held in memory between order creation and payment
// completion and forwarded untouched to the registration call.
type TempUser struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// Order is the server-issued order awaiting gateway completion.
// Amount is in minor units (paise).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PendingOrder pairs a server-acknowledged order with the registration
// payload that must be committed once the payment clears. It is never
// persisted; abandoning the payment simply drops it.
type PendingOrder struct {
	Order    Order    `json:"order"`
	TempUser TempUser `json:"tempUser"`
}

// PaymentCompletion is the payload the checkout widget reports on a
// client-side success. It is opaque to this service beyond the correlation
// ids; the whole payload is forwarded to the verification service.
type PaymentCompletion struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Signature string `json:"signature"`
}

// PaymentFailure is the payload the widget reports when the gateway rejects
// the payment. Correlation ids may be absent depending on the failure cause.
type PaymentFailure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
}

// RegistrationResult is the finalized account returned by the registration
// service after a verified payment.
type RegistrationResult struct {
	MembershipID string `json:"membershipId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
}
