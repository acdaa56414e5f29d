package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"medimitra-membership-api/enrollment"
	"medimitra-membership-api/models"
	"medimitra-membership-api/services/checkout"
	"medimitra-membership-api/services/gateway"
	"medimitra-membership-api/types"
	"medimitra-membership-api/utils"
)

// PaymentHandler exposes the payment step: initiating a checkout and
// receiving the widget's outcome callback.
type PaymentHandler struct {
	registry *enrollment.Registry
	bridge   *checkout.Bridge
	store    *sessions.CookieStore
}

func NewPaymentHandler(registry *enrollment.Registry, bridge *checkout.Bridge, store *sessions.CookieStore) *PaymentHandler {
	return &PaymentHandler{
		registry: registry,
		bridge:   bridge,
		store:    store,
	}
}

func (h *PaymentHandler) session(w http.ResponseWriter, r *http.Request) *enrollment.Session {
	cookie, err := h.store.Get(r, sessionCookieName)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid enrollment session")
		return nil
	}

	id, ok := cookie.Values["id"].(string)
	if !ok || id == "" {
		utils.SendErrorResponse(w, http.StatusUnauthorized, "No active enrollment session")
		return nil
	}

	s, ok := h.registry.Get(id)
	if !ok {
		utils.SendErrorResponse(w, http.StatusUnauthorized, "Enrollment session expired, please start again")
		return nil
	}
	return s
}

// Pay creates the order and returns the widget configuration that opens the
// checkout modal. Every call creates a fresh order; retries never reuse one.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	s := h.session(w, r)
	if s == nil {
		return
	}

	log.Printf("[RequestID: %s] [session %s] initiating payment", requestID, s.ID)

	cfg, err := h.bridge.Pay(r.Context(), s)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrNotOnPaymentStep):
			utils.SendErrorResponse(w, http.StatusConflict, "Complete the previous steps before paying")
		case errors.Is(err, checkout.ErrPaymentInFlight):
			utils.SendErrorResponse(w, http.StatusConflict, "A payment is already in progress")
		case errors.Is(err, checkout.ErrWidgetUnavailable):
			utils.SendErrorResponse(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, gateway.ErrServer):
			log.Printf("[RequestID: %s] [session %s] order service returned unreadable response: %v", requestID, s.ID, err)
			utils.SendErrorResponse(w, http.StatusBadGateway,
				"The payment service returned an unexpected response. Please try again later.")
		default:
			log.Printf("[RequestID: %s] [session %s] order creation failed: %v", requestID, s.ID, err)
			utils.SendErrorResponse(w, http.StatusBadGateway,
				gateway.UserMessage(err, "Could not start the payment, please try again"))
		}
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   cfg,
	})
}

// Callback receives the widget's single outcome report for an invocation.
// The per-invocation token authenticates the report; duplicates are rejected
// after the first resolution.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	var cb types.CheckoutCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	log.Printf("[RequestID: %s] checkout callback for invocation %s: %s", requestID, cb.InvocationID, cb.Event)

	outcome, err := h.bridge.HandleOutcome(r.Context(), &cb)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrTokenExpired):
			utils.SendErrorResponse(w, http.StatusUnauthorized, "Checkout token expired")
		case errors.Is(err, checkout.ErrInvalidToken):
			utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid checkout token")
		case errors.Is(err, checkout.ErrUnknownInvocation):
			utils.SendErrorResponse(w, http.StatusNotFound, "Unknown checkout invocation")
		case errors.Is(err, checkout.ErrAlreadyResolved):
			utils.SendErrorResponse(w, http.StatusConflict, "This checkout was already resolved")
		default:
			log.Printf("[RequestID: %s] callback handling failed: %v", requestID, err)
			utils.SendErrorResponse(w, http.StatusBadRequest, "Could not process checkout outcome")
		}
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   outcome,
	})
}
