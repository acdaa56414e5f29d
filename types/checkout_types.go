package types

import "medimitra-membership-api/models"

// WidgetConfig is the configuration object handed to the externally hosted
// checkout widget: gateway key, order coordinates, prefill info and theme,
// plus the invocation id and signed token the widget must echo back on its
// outcome callback.
type WidgetConfig struct {
	Key          string      `json:"key"`
	Amount       int64       `json:"amount"`
	Currency     string      `json:"currency"`
	OrderID      string      `json:"order_id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Prefill      PrefillInfo `json:"prefill"`
	Theme        ThemeInfo   `json:"theme"`
	InvocationID string      `json:"invocation_id"`
	Token        string      `json:"token"`
}

// PrefillInfo pre-populates the widget's contact fields from the draft.
type PrefillInfo struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// ThemeInfo styles the widget to match the storefront.
type ThemeInfo struct {
	Color string `json:"color,omitempty"`
}

// Checkout outcome events. The widget reports exactly one per opened session,
// plus dismissed when the user closes it without completing.
const (
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventDismissed = "dismissed"
)

// CheckoutCallback is the widget's outcome report for one invocation.
// Completion is set for completed events, Failure for failed events, and
// neither for dismissals.
type CheckoutCallback struct {
	InvocationID string                    `json:"invocation_id"`
	Token        string                    `json:"token"`
	Event        string                    `json:"event"`
	Completion   *models.PaymentCompletion `json:"completion,omitempty"`
	Failure      *models.PaymentFailure    `json:"failure,omitempty"`
}
