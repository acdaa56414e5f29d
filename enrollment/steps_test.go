package enrollment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/im-adarsh/go-statemachine/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmails counts lookups so tests can assert the remote check only runs
// after every synchronous check passed.
type stubEmails struct {
	exists bool
	err    error
	calls  int
}

func (s *stubEmails) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	s.calls++
	return s.exists, s.err
}

func newTestSession(t *testing.T, emails *stubEmails) (*Controller, *Session) {
	t.Helper()
	ctrl := NewController(emails)
	registry := NewRegistry(time.Hour)
	t.Cleanup(registry.Close)
	return ctrl, registry.Create("test-session", ctrl)
}

func fillValidDetails(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.UpdateField(FieldName, "Priya Sharma"))
	require.NoError(t, s.UpdateField(FieldPhone, "9876543210"))
	require.NoError(t, s.UpdateField(FieldEmail, "priya@example.com"))
	require.NoError(t, s.UpdateField(FieldPassword, "secret123"))
	require.NoError(t, s.UpdateField(FieldConfirmPassword, "secret123"))
}

func TestSessionStartsAtWelcome(t *testing.T) {
	_, s := newTestSession(t, &stubEmails{})
	assert.Equal(t, StepWelcome, s.Step())
}

func TestHappyPathToPayment(t *testing.T) {
	ctrl, s := newTestSession(t, &stubEmails{})
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))
	assert.Equal(t, StepPersonalDetails, s.Step())

	fillValidDetails(t, s)
	require.NoError(t, ctrl.Next(ctx, s))
	assert.Equal(t, StepFamilyDetails, s.Step())

	// Family details need no validation; blank members may proceed.
	require.NoError(t, s.SetFamilyMemberCount(2))
	require.NoError(t, ctrl.Next(ctx, s))
	assert.Equal(t, StepPayment, s.Step())
}

func TestValidationFailureStaysOnPersonalDetails(t *testing.T) {
	emails := &stubEmails{}
	ctrl, s := newTestSession(t, emails)
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))

	fillValidDetails(t, s)
	require.NoError(t, s.UpdateField(FieldConfirmPassword, "different"))

	err := ctrl.Next(ctx, s)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StepPersonalDetails, s.Step())
	assert.Contains(t, s.FieldErrors(), FieldConfirmPassword)
	assert.Equal(t, 0, emails.calls, "remote check must not run when local checks fail")
}

func TestEditingFieldClearsItsError(t *testing.T) {
	ctrl, s := newTestSession(t, &stubEmails{})
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))
	require.Error(t, ctrl.Next(ctx, s))
	require.Contains(t, s.FieldErrors(), FieldName)

	require.NoError(t, s.UpdateField(FieldName, "Priya Sharma"))
	assert.NotContains(t, s.FieldErrors(), FieldName)
}

func TestEmailAlreadyRegistered(t *testing.T) {
	emails := &stubEmails{exists: true}
	ctrl, s := newTestSession(t, emails)
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))
	fillValidDetails(t, s)

	err := ctrl.Next(ctx, s)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StepPersonalDetails, s.Step())
	assert.Equal(t, "An account with this email already exists", s.FieldErrors()[FieldEmail])
	assert.Equal(t, 1, emails.calls)
}

func TestEmailCheckUnavailableSetsNotice(t *testing.T) {
	emails := &stubEmails{err: errors.New("connection refused")}
	ctrl, s := newTestSession(t, emails)
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))
	fillValidDetails(t, s)

	err := ctrl.Next(ctx, s)
	assert.ErrorIs(t, err, ErrEmailCheckUnavailable)
	assert.Equal(t, StepPersonalDetails, s.Step())
	assert.Empty(t, s.FieldErrors(), "a check outage is not a field error")

	notice := s.ConsumeNotice()
	assert.Equal(t, "Could not verify email availability. Please try again.", notice)
	assert.Empty(t, s.ConsumeNotice(), "notice is consumed on read")
}

func TestBackNavigation(t *testing.T) {
	ctrl, s := newTestSession(t, &stubEmails{})
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))
	fillValidDetails(t, s)
	require.NoError(t, ctrl.Next(ctx, s))
	require.NoError(t, ctrl.Next(ctx, s))
	require.Equal(t, StepPayment, s.Step())

	require.NoError(t, ctrl.Back(ctx, s))
	assert.Equal(t, StepFamilyDetails, s.Step())
	require.NoError(t, ctrl.Back(ctx, s))
	assert.Equal(t, StepPersonalDetails, s.Step())
	require.NoError(t, ctrl.Back(ctx, s))
	assert.Equal(t, StepWelcome, s.Step())

	err := ctrl.Back(ctx, s)
	assert.ErrorIs(t, err, workflow.ErrUnknownSignal)
	assert.Equal(t, StepWelcome, s.Step())
}

func TestBackDoesNotRevalidate(t *testing.T) {
	emails := &stubEmails{}
	ctrl, s := newTestSession(t, emails)
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))
	fillValidDetails(t, s)
	require.NoError(t, ctrl.Next(ctx, s))
	require.Equal(t, 1, emails.calls)

	require.NoError(t, ctrl.Back(ctx, s))
	assert.Equal(t, 1, emails.calls, "back navigation never validates")
}

func TestNoForwardFromPayment(t *testing.T) {
	ctrl, s := newTestSession(t, &stubEmails{})
	ctx := context.Background()

	require.NoError(t, ctrl.Next(ctx, s))
	fillValidDetails(t, s)
	require.NoError(t, ctrl.Next(ctx, s))
	require.NoError(t, ctrl.Next(ctx, s))
	require.Equal(t, StepPayment, s.Step())

	assert.ErrorIs(t, ctrl.Next(ctx, s), ErrNoForward)
	assert.Equal(t, StepPayment, s.Step())
}

func TestConfirmPaymentOnlyFromPayment(t *testing.T) {
	ctrl, s := newTestSession(t, &stubEmails{})
	ctx := context.Background()

	err := ctrl.ConfirmPayment(ctx, s)
	assert.ErrorIs(t, err, workflow.ErrUnknownSignal)

	require.NoError(t, ctrl.Next(ctx, s))
	fillValidDetails(t, s)
	require.NoError(t, ctrl.Next(ctx, s))
	require.NoError(t, ctrl.Next(ctx, s))

	require.NoError(t, ctrl.ConfirmPayment(ctx, s))
	assert.Equal(t, StepConfirmation, s.Step())

	// Confirmation is terminal.
	assert.ErrorIs(t, ctrl.Next(ctx, s), ErrNoForward)
	assert.ErrorIs(t, ctrl.Back(ctx, s), workflow.ErrUnknownSignal)
}

func TestPaymentBusyFlag(t *testing.T) {
	_, s := newTestSession(t, &stubEmails{})

	assert.False(t, s.PaymentInFlight())
	assert.True(t, s.BeginPayment())
	assert.False(t, s.BeginPayment(), "second begin is rejected while in flight")
	assert.True(t, s.PaymentInFlight())

	s.EndPayment()
	assert.True(t, s.BeginPayment())
	s.EndPayment()
}

func TestRegistryLifecycle(t *testing.T) {
	ctrl := NewController(&stubEmails{})
	registry := NewRegistry(time.Hour)
	defer registry.Close()

	s := registry.Create("abc", ctrl)
	got, ok := registry.Get("abc")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, registry.Len())

	registry.Delete("abc")
	_, ok = registry.Get("abc")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Len())
}
