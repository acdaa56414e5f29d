package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medimitra-membership-api/models"
)

const (
	// RequestTimeout bounds every remote call. The UI layer above shows a
	// loading affordance for the duration; there is no user-facing cancel.
	RequestTimeout = 30 * time.Second

	checkEmailPath  = "/api/check-email"
	createOrderPath = "/api/orders"
	verifyPath      = "/api/payments/verify"
	registerPath    = "/api/register"
)

// Client talks to the collaborator API that owns the four remote operations
// of the enrollment flow. Transport and auth internals of those services are
// opaque; only the request/response contracts here are relied upon.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: transport,
		},
	}
}

// CheckEmailExists reports whether an account already uses this email.
func (c *Client) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	endpoint := fmt.Sprintf("%s%s?email=%s", c.baseURL, checkEmailPath, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("error creating email check request: %v", err)
	}

	var out struct {
		Exists bool `json:"exists"`
	}
	if err := c.do(req, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// createOrderRequest is the draft as the order service expects it. The
// confirm-password check, plan selector and family details stay client-side;
// the service echoes back everything it needs for registration as tempUser.
type createOrderRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phoneNumber"`
	Password          string `json:"password"`
	Plan              string `json:"plan"`
	FamilyMemberCount int    `json:"familyMemberCount"`
}

// CreateOrder asks the remote service to create a gateway order for the
// draft. The response pairs the order (amount in minor units) with the
// tempUser registration echo.
func (c *Client) CreateOrder(ctx context.Context, draft *models.EnrollmentDraft) (*models.PendingOrder, error) {
	start := time.Now()

	body := createOrderRequest{
		Name:              draft.Name,
		Email:             draft.Email,
		PhoneNumber:       draft.PhoneNumber,
		Password:          draft.Password,
		Plan:              draft.Plan,
		FamilyMemberCount: draft.FamilyMemberCount,
	}

	var out models.PendingOrder
	if err := c.post(ctx, createOrderPath, body, &out); err != nil {
		return nil, err
	}

	log.Printf("Order %s created in %v (amount %d %s)",
		out.Order.ID, time.Since(start), out.Order.Amount, out.Order.Currency)
	return &out, nil
}

// VerifyPayment submits the widget's completion payload for server-side
// confirmation that the client-reported success is genuine.
func (c *Client) VerifyPayment(ctx context.Context, completion *models.PaymentCompletion) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.post(ctx, verifyPath, completion, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// registerRequest commits the account: the tempUser echo from order creation
// plus the family details that never left this service.
type registerRequest struct {
	models.TempUser
	FamilyDetails []models.FamilyMember `json:"familyDetails"`
}

// Register finalizes the account after a verified payment.
func (c *Client) Register(ctx context.Context, tempUser models.TempUser, family []models.FamilyMember) (*models.RegistrationResult, error) {
	var out struct {
		User models.RegistrationResult `json:"user"`
	}
	req := registerRequest{TempUser: tempUser, FamilyDetails: family}
	if err := c.post(ctx, registerPath, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	return c.do(req, out)
}

// do executes the request and decodes the response. Non-2xx responses with a
// well-formed {message} body become a RejectionError surfaced verbatim to the
// user; anything unreadable or undecodable becomes ErrServer so a malformed
// body is never mistaken for a rejection.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	// Some upstreams prefix JSON with a BOM.
	cleanBody := strings.TrimPrefix(string(respBody), "\ufeff")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var rej struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(cleanBody), &rej); err == nil && rej.Message != "" {
			return &RejectionError{StatusCode: resp.StatusCode, Message: rej.Message}
		}
		return fmt.Errorf("%w (status %d)", ErrServer, resp.StatusCode)
	}

	if len(strings.TrimSpace(cleanBody)) == 0 {
		return ErrServer
	}
	if err := json.Unmarshal([]byte(cleanBody), out); err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	return nil
}
