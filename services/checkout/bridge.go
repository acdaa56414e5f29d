package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"medimitra-membership-api/enrollment"
	"medimitra-membership-api/models"
	"medimitra-membership-api/queue"
	"medimitra-membership-api/types"
	"medimitra-membership-api/utils"
)

var (
	// ErrNotOnPaymentStep rejects a pay action from any step but Payment.
	ErrNotOnPaymentStep = errors.New("session is not on the payment step")

	// ErrPaymentInFlight rejects a pay action while a previous attempt has
	// not reached a terminal outcome. The pay control is disabled, not
	// ignored, so rapid repeated clicks cannot create duplicate orders.
	ErrPaymentInFlight = errors.New("a payment attempt is already in progress")

	// ErrWidgetUnavailable is surfaced when the checkout script cannot be
	// loaded. The pending order is kept in memory but a retry re-enters
	// from order creation.
	ErrWidgetUnavailable = errors.New("payment system unavailable, please try again")

	// ErrUnknownInvocation means the callback referenced no live invocation.
	ErrUnknownInvocation = errors.New("unknown checkout invocation")

	// ErrAlreadyResolved means this invocation already reported an outcome;
	// duplicate or late widget events are dropped.
	ErrAlreadyResolved = errors.New("checkout invocation already resolved")
)

// Gateway is the slice of the remote API the bridge drives: the two-phase
// handshake around the widget (create-order, verify-payment) plus the final
// registration commit.
type Gateway interface {
	CreateOrder(ctx context.Context, draft *models.EnrollmentDraft) (*models.PendingOrder, error)
	VerifyPayment(ctx context.Context, completion *models.PaymentCompletion) (bool, error)
	Register(ctx context.Context, tempUser models.TempUser, family []models.FamilyMember) (*models.RegistrationResult, error)
}

// invocation is one opened widget session. It resolves at most once; the
// resolved flag is flipped with a compare-and-swap so duplicate events from
// the widget cannot fire a second outcome branch.
type invocation struct {
	id        string
	session   *enrollment.Session
	pending   *models.PendingOrder
	createdAt time.Time

	mu       sync.Mutex
	resolved bool
}

func (inv *invocation) resolve() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.resolved {
		return false
	}
	inv.resolved = true
	return true
}

// Bridge coordinates the payment step: order creation, the idempotent
// checkout script load, widget invocation, and the bridging of the widget's
// three asynchronous outcomes back into the step machine.
type Bridge struct {
	gateway Gateway
	loader  *Loader
	tokens  *TokenIssuer
	steps   *enrollment.Controller
	jobs    *queue.Queue // optional; notifications are best-effort

	keyID      string
	themeColor string

	mu          sync.Mutex
	invocations map[string]*invocation
}

func NewBridge(g Gateway, l *Loader, t *TokenIssuer, steps *enrollment.Controller, jobs *queue.Queue, keyID, themeColor string) *Bridge {
	return &Bridge{
		gateway:     g,
		loader:      l,
		tokens:      t,
		steps:       steps,
		jobs:        jobs,
		keyID:       keyID,
		themeColor:  themeColor,
		invocations: make(map[string]*invocation),
	}
}

// Pay runs the entry sequence of the payment step: create the order, hold it
// as the session's pending order, make sure the checkout script is loaded,
// then mint a widget invocation. The returned configuration opens the modal;
// from that point the widget owns the interaction and the bridge only reacts
// to its outcome callback.
//
// Every retry re-enters here and calls createOrder again; an order created
// by an earlier abandoned attempt is not reused or cancelled (the order
// service garbage-collects unpaid orders).
func (b *Bridge) Pay(ctx context.Context, s *enrollment.Session) (*types.WidgetConfig, error) {
	if s.Step() != enrollment.StepPayment {
		return nil, ErrNotOnPaymentStep
	}
	if !s.BeginPayment() {
		return nil, ErrPaymentInFlight
	}

	draft := s.DraftCopy()
	pending, err := b.gateway.CreateOrder(ctx, &draft)
	if err != nil {
		s.EndPayment()
		return nil, err
	}
	s.SetPendingOrder(pending)

	if err := b.loader.EnsureLoaded(ctx); err != nil {
		log.Printf("[session %s] checkout script load failed: %v", s.ID, err)
		s.EndPayment()
		return nil, ErrWidgetUnavailable
	}

	inv := &invocation{
		id:        uuid.New().String(),
		session:   s,
		pending:   pending,
		createdAt: time.Now(),
	}
	token, err := b.tokens.Issue(inv.id, pending.Order.ID)
	if err != nil {
		s.EndPayment()
		return nil, fmt.Errorf("failed to prepare checkout: %v", err)
	}

	b.mu.Lock()
	b.pruneLocked()
	b.invocations[inv.id] = inv
	b.mu.Unlock()

	log.Printf("[session %s] checkout invocation %s opened for order %s (%s)",
		s.ID, inv.id, pending.Order.ID, utils.FormatINR(pending.Order.Amount))

	return &types.WidgetConfig{
		Key:          b.keyID,
		Amount:       pending.Order.Amount,
		Currency:     pending.Order.Currency,
		OrderID:      pending.Order.ID,
		Name:         "MediMitra Membership",
		Description:  fmt.Sprintf("Annual membership, %d family member(s)", draft.FamilyMemberCount),
		Prefill:      types.PrefillInfo{Name: draft.Name, Email: draft.Email, Contact: draft.PhoneNumber},
		Theme:        types.ThemeInfo{Color: b.themeColor},
		InvocationID: inv.id,
		Token:        token,
	}, nil
}

// HandleOutcome receives the widget's outcome report for one invocation and
// runs the matching branch. Exactly one branch fires per invocation; the
// session stays on the Payment step for every branch except a fully verified
// and registered completion.
func (b *Bridge) HandleOutcome(ctx context.Context, cb *types.CheckoutCallback) (*models.OutcomeRecord, error) {
	claims, err := b.tokens.Verify(cb.Token)
	if err != nil {
		return nil, err
	}
	if claims.InvocationID != cb.InvocationID {
		return nil, ErrInvalidToken
	}

	// Reject malformed reports before touching the invocation, so a bad
	// event value cannot consume the one-shot resolution.
	switch cb.Event {
	case types.EventDismissed, types.EventFailed, types.EventCompleted:
	default:
		return nil, fmt.Errorf("unknown checkout event %q", cb.Event)
	}

	b.mu.Lock()
	inv, ok := b.invocations[cb.InvocationID]
	b.mu.Unlock()
	if !ok {
		return nil, ErrUnknownInvocation
	}
	if !inv.resolve() {
		return nil, ErrAlreadyResolved
	}

	b.mu.Lock()
	delete(b.invocations, cb.InvocationID)
	b.mu.Unlock()

	defer inv.session.EndPayment()

	var outcome *models.OutcomeRecord
	switch cb.Event {
	case types.EventDismissed:
		outcome = b.handleDismissal(inv)
	case types.EventFailed:
		outcome = b.handleFailure(inv, cb.Failure)
	default:
		outcome = b.handleCompletion(ctx, inv, cb.Completion)
	}

	inv.session.SetOutcome(outcome)
	return outcome, nil
}

// handleDismissal covers the user closing the modal without completing.
// Draft and pending order are untouched; the user may retry, which creates a
// fresh order.
func (b *Bridge) handleDismissal(inv *invocation) *models.OutcomeRecord {
	log.Printf("[session %s] checkout dismissed for order %s", inv.session.ID, inv.pending.Order.ID)
	return &models.OutcomeRecord{
		Kind:    models.OutcomeError,
		Title:   models.TitlePaymentCancelled,
		Message: "You closed the payment window before completing the payment. No amount was charged.",
		OrderID: inv.pending.Order.ID,
	}
}

// handleFailure covers the widget reporting a gateway-side rejection. The
// correlation ids may be absent depending on the failure cause.
func (b *Bridge) handleFailure(inv *invocation, failure *models.PaymentFailure) *models.OutcomeRecord {
	msg := "The payment could not be completed. You can try again."
	var paymentID, orderID string
	if failure != nil {
		if failure.Description != "" {
			msg = failure.Description
		}
		paymentID = failure.PaymentID
		orderID = failure.OrderID
	}
	if orderID == "" {
		orderID = inv.pending.Order.ID
	}
	log.Printf("[session %s] payment failed for order %s: %s", inv.session.ID, orderID, msg)
	return &models.OutcomeRecord{
		Kind:      models.OutcomeError,
		Title:     models.TitlePaymentFailed,
		Message:   msg,
		PaymentID: paymentID,
		OrderID:   orderID,
	}
}

// handleCompletion runs the verification sub-sequence for a client-side
// success: verify the payment server-side, then commit the registration.
// Whatever it returns, the caller records it as the session outcome; a panic
// anywhere inside is reported as a generic payment error with the session
// still on the Payment step.
func (b *Bridge) handleCompletion(ctx context.Context, inv *invocation, completion *models.PaymentCompletion) (outcome *models.OutcomeRecord) {
	s := inv.session
	order := inv.pending.Order

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[session %s] panic in completion handler: %v", s.ID, r)
			outcome = &models.OutcomeRecord{
				Kind:    models.OutcomeError,
				Title:   models.TitlePaymentError,
				Message: "Something went wrong while finishing your payment. Please contact support.",
				OrderID: order.ID,
			}
		}
	}()

	if completion == nil {
		completion = &models.PaymentCompletion{OrderID: order.ID}
	}

	valid, err := b.gateway.VerifyPayment(ctx, completion)
	if err != nil || !valid {
		if err != nil {
			log.Printf("[session %s] payment verification errored for order %s: %v", s.ID, order.ID, err)
		} else {
			log.Printf("[session %s] payment verification rejected for order %s", s.ID, order.ID)
		}
		b.escalate(completion.PaymentID, order.ID, inv.pending.TempUser.Email, "verification_failed")
		return &models.OutcomeRecord{
			Kind:  models.OutcomeError,
			Title: models.TitleVerificationFailed,
			Message: fmt.Sprintf("We could not verify your payment. If your account was charged, "+
				"please contact support and quote payment id %s.", completion.PaymentID),
			PaymentID: completion.PaymentID,
			OrderID:   order.ID,
		}
	}

	draft := s.DraftCopy()
	result, err := b.gateway.Register(ctx, inv.pending.TempUser, draft.FamilyMembers)
	if err != nil {
		// Money captured, account not created. No automatic recovery;
		// hand the correlation ids to the user and the support desk.
		log.Printf("[session %s] registration failed after verified payment %s (order %s): %v",
			s.ID, completion.PaymentID, order.ID, err)
		b.escalate(completion.PaymentID, order.ID, inv.pending.TempUser.Email, "registration_failed")
		return &models.OutcomeRecord{
			Kind:  models.OutcomeError,
			Title: models.TitleRegistrationFailed,
			Message: fmt.Sprintf("Your payment went through but we could not create your account. "+
				"Please contact support and quote payment id %s and order id %s.",
				completion.PaymentID, order.ID),
			PaymentID: completion.PaymentID,
			OrderID:   order.ID,
		}
	}

	if err := b.steps.ConfirmPayment(ctx, s); err != nil {
		// The session left the payment step while the widget was open.
		// The account exists and the payment cleared, so the success
		// outcome stands; only the step did not advance.
		log.Printf("[session %s] could not advance to confirmation: %v", s.ID, err)
	}

	b.welcome(result, completion.PaymentID, order, draft.Plan)

	log.Printf("[session %s] membership %s activated (payment %s, order %s)",
		s.ID, result.MembershipID, completion.PaymentID, order.ID)

	return &models.OutcomeRecord{
		Kind:              models.OutcomeSuccess,
		Title:             models.TitlePaymentSuccess,
		Message:           fmt.Sprintf("Welcome to MediMitra, %s! Your membership is active.", result.Name),
		PaymentID:         completion.PaymentID,
		OrderID:           order.ID,
		Amount:            order.Amount,
		Plan:              draft.Plan,
		FamilyMemberCount: draft.FamilyMemberCount,
		MembershipID:      result.MembershipID,
	}
}

// welcome enqueues the welcome email. Best-effort: a queue outage never
// fails a successful enrollment.
func (b *Bridge) welcome(result *models.RegistrationResult, paymentID string, order models.Order, plan string) {
	if b.jobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.jobs.Enqueue(ctx, queue.JobTypeWelcomeEmail, map[string]interface{}{
		"email":         result.Email,
		"name":          result.Name,
		"membership_id": result.MembershipID,
		"plan":          plan,
		"payment_id":    paymentID,
		"order_id":      order.ID,
		"amount":        order.Amount,
	})
	if err != nil {
		log.Printf("Warning: failed to enqueue welcome email for %s: %v", result.Email, err)
	}
}

// escalate enqueues a support escalation carrying the correlation ids for
// manual reconciliation of a charge that did not produce an account.
func (b *Bridge) escalate(paymentID, orderID, email, reason string) {
	if b.jobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.jobs.Enqueue(ctx, queue.JobTypeSupportEscalation, map[string]interface{}{
		"payment_id": paymentID,
		"order_id":   orderID,
		"email":      email,
		"reason":     reason,
	})
	if err != nil {
		log.Printf("Warning: failed to enqueue support escalation for order %s: %v", orderID, err)
	}
}

// pruneLocked drops invocations whose callback token has long expired.
// Callers hold b.mu.
func (b *Bridge) pruneLocked() {
	cutoff := time.Now().Add(-2 * TokenTTL)
	for id, inv := range b.invocations {
		if inv.createdAt.Before(cutoff) {
			inv.session.EndPayment()
			delete(b.invocations, id)
		}
	}
}
