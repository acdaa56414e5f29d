package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimitra-membership-api/enrollment"
	"medimitra-membership-api/models"
	"medimitra-membership-api/services/checkout"
	"medimitra-membership-api/services/gateway"
)

// payGateway stubs the bridge's gateway with a scripted order-creation error.
type payGateway struct {
	createOrderErr error
}

func (g *payGateway) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (g *payGateway) CreateOrder(ctx context.Context, draft *models.EnrollmentDraft) (*models.PendingOrder, error) {
	if g.createOrderErr != nil {
		return nil, g.createOrderErr
	}
	return &models.PendingOrder{
		Order: models.Order{ID: "order_123", Amount: 36500, Currency: "INR"},
	}, nil
}

func (g *payGateway) VerifyPayment(ctx context.Context, completion *models.PaymentCompletion) (bool, error) {
	return true, nil
}

func (g *payGateway) Register(ctx context.Context, tempUser models.TempUser, family []models.FamilyMember) (*models.RegistrationResult, error) {
	return &models.RegistrationResult{MembershipID: "MM-2026-0042"}, nil
}

// newPayFlow mounts the enrollment and payment handlers on one router and
// walks the session to the Payment step over HTTP.
func newPayFlow(t *testing.T, gw *payGateway) *testFlow {
	t.Helper()

	scriptSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("// checkout script"))
	}))
	t.Cleanup(scriptSrv.Close)

	steps := enrollment.NewController(gw)
	registry := enrollment.NewRegistry(time.Hour)
	t.Cleanup(registry.Close)

	bridge := checkout.NewBridge(gw,
		checkout.NewLoader(scriptSrv.URL, nil),
		checkout.NewTokenIssuer("test-secret"),
		steps, nil, "key_test_123", "#0d9488")

	store := sessions.NewCookieStore([]byte("test-secret"))
	eh := NewEnrollmentHandler(registry, steps, store)
	ph := NewPaymentHandler(registry, bridge, store)

	router := mux.NewRouter()
	router.HandleFunc("/api/enrollment/start", eh.Start).Methods("POST")
	router.HandleFunc("/api/enrollment/field", eh.UpdateField).Methods("POST")
	router.HandleFunc("/api/enrollment/next", eh.Next).Methods("POST")
	router.HandleFunc("/api/enrollment/pay", ph.Pay).Methods("POST")
	router.HandleFunc("/api/checkout/callback", ph.Callback).Methods("POST")

	f := &testFlow{t: t, router: router}

	f.do("POST", "/api/enrollment/start", nil)
	f.do("POST", "/api/enrollment/next", nil)
	f.setField("name", "Priya Sharma")
	f.setField("phoneNumber", "9876543210")
	f.setField("email", "priya@example.com")
	f.setField("password", "secret123")
	f.setField("confirmPassword", "secret123")
	rec := f.do("POST", "/api/enrollment/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do("POST", "/api/enrollment/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	return f
}

func TestPayReturnsWidgetConfigOverHTTP(t *testing.T) {
	f := newPayFlow(t, &payGateway{})

	rec := f.do("POST", "/api/enrollment/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, data := f.decode(rec)
	assert.Equal(t, "key_test_123", data["key"])
	assert.Equal(t, "order_123", data["order_id"])
	assert.NotEmpty(t, data["token"])
}

func TestPayUnreadableOrderResponseGetsDistinctMessage(t *testing.T) {
	// An empty or non-JSON order-service body must not read like a generic
	// transport failure.
	f := newPayFlow(t, &payGateway{createOrderErr: gateway.ErrServer})

	rec := f.do("POST", "/api/enrollment/pay", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	resp, _ := f.decode(rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "The payment service returned an unexpected response. Please try again later.", resp.Message)
	assert.NotEqual(t, "Could not start the payment, please try again", resp.Message)
}

func TestPayTransportFailureGetsGenericMessage(t *testing.T) {
	f := newPayFlow(t, &payGateway{createOrderErr: errors.New("dial tcp: connection refused")})

	rec := f.do("POST", "/api/enrollment/pay", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	resp, _ := f.decode(rec)
	assert.Equal(t, "Could not start the payment, please try again", resp.Message)
}

func TestPayRejectionMessageSurfacedOverHTTP(t *testing.T) {
	f := newPayFlow(t, &payGateway{createOrderErr: &gateway.RejectionError{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    "Order amount too small",
	}})

	rec := f.do("POST", "/api/enrollment/pay", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	resp, _ := f.decode(rec)
	assert.Equal(t, "Order amount too small", resp.Message)
}

func TestCallbackRoundTripOverHTTP(t *testing.T) {
	f := newPayFlow(t, &payGateway{})

	rec := f.do("POST", "/api/enrollment/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data := f.decode(rec)

	rec = f.do("POST", "/api/checkout/callback", map[string]interface{}{
		"invocation_id": data["invocation_id"],
		"token":         data["token"],
		"event":         "dismissed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data models.OutcomeRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, models.TitlePaymentCancelled, out.Data.Title)

	// Replaying the same report conflicts.
	rec = f.do("POST", "/api/checkout/callback", map[string]interface{}{
		"invocation_id": data["invocation_id"],
		"token":         data["token"],
		"event":         "dismissed",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
