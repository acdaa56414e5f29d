package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimitra-membership-api/models"
)

func TestCheckEmailExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, checkEmailPath, r.URL.Path)
		exists := r.URL.Query().Get("email") == "taken@example.com"
		json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	exists, err := c.CheckEmailExists(context.Background(), "taken@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.CheckEmailExists(context.Background(), "free@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, createOrderPath, r.URL.Path)

		var req createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Priya Sharma", req.Name)
		assert.Equal(t, 2, req.FamilyMemberCount)

		json.NewEncoder(w).Encode(models.PendingOrder{
			Order: models.Order{ID: "order_123", Amount: 98600, Currency: "INR"},
			TempUser: models.TempUser{
				Name:        req.Name,
				Email:       req.Email,
				PhoneNumber: req.PhoneNumber,
				Password:    req.Password,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	draft := &models.EnrollmentDraft{
		Name:              "Priya Sharma",
		Email:             "priya@example.com",
		PhoneNumber:       "9876543210",
		Password:          "secret123",
		Plan:              models.PlanAnnual,
		FamilyMemberCount: 2,
	}

	pending, err := c.CreateOrder(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "order_123", pending.Order.ID)
	assert.Equal(t, int64(98600), pending.Order.Amount)
	assert.Equal(t, "priya@example.com", pending.TempUser.Email)
}

func TestRejectionMessageSurfacesVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "Order amount too small"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateOrder(context.Background(), &models.EnrollmentDraft{})
	require.Error(t, err)

	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, http.StatusUnprocessableEntity, rej.StatusCode)
	assert.Equal(t, "Order amount too small", rej.Message)
	assert.Equal(t, "Order amount too small", UserMessage(err, "fallback"))
}

func TestMalformedErrorBodyIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>Internal Server Error</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateOrder(context.Background(), &models.EnrollmentDraft{})
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, "fallback", UserMessage(err, "fallback"), "never surface raw server bodies")
}

func TestEmptySuccessBodyIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.VerifyPayment(context.Background(), &models.PaymentCompletion{})
	assert.ErrorIs(t, err, ErrServer)
}

func TestVerifyPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, verifyPath, r.URL.Path)

		var c models.PaymentCompletion
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		json.NewEncoder(w).Encode(map[string]bool{"valid": c.Signature == "good"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	valid, err := c.VerifyPayment(context.Background(), &models.PaymentCompletion{Signature: "good"})
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = c.VerifyPayment(context.Background(), &models.PaymentCompletion{Signature: "bad"})
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, registerPath, r.URL.Path)

		var req registerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "priya@example.com", req.Email)
		assert.Len(t, req.FamilyDetails, 1)

		json.NewEncoder(w).Encode(map[string]models.RegistrationResult{
			"user": {MembershipID: "MM-2026-0042", Name: req.Name, Email: req.Email},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.Register(context.Background(),
		models.TempUser{Name: "Priya Sharma", Email: "priya@example.com"},
		[]models.FamilyMember{{Name: "Ravi", Age: 12}})
	require.NoError(t, err)
	assert.Equal(t, "MM-2026-0042", result.MembershipID)
}

func TestBOMPrefixedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\ufeff{\"exists\":true}"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	exists, err := c.CheckEmailExists(context.Background(), "x@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}
