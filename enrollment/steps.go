package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/im-adarsh/go-statemachine/workflow"
)

// Enrollment steps. The compiled transition table below is the only way a
// session moves between them; there are no ad hoc step comparisons anywhere.
const (
	StepWelcome         = "Welcome"
	StepPersonalDetails = "PersonalDetails"
	StepFamilyDetails   = "FamilyDetails"
	StepPayment         = "Payment"
	StepConfirmation    = "Confirmation"
)

// Signals driving the step machine.
const (
	SignalGetStarted       = "get_started"
	SignalSubmitDetails    = "submit_details"
	SignalProceedToPayment = "proceed_to_payment"
	SignalBack             = "back"
	SignalPaymentConfirmed = "payment_confirmed"
)

// ErrNoForward is returned when the current step has no user-driven forward
// transition. Payment only advances through a completed payment cycle and
// Confirmation is terminal.
var ErrNoForward = errors.New("no forward transition from current step")

// Controller owns the compiled enrollment workflow and the remote email
// lookup used to gate the personal-details submission.
type Controller struct {
	wf     *workflow.Workflow[*Session]
	emails EmailChecker
}

// NewController compiles the transition table:
//
//	Welcome         --get_started-------> PersonalDetails
//	PersonalDetails --submit_details----> FamilyDetails   (validated)
//	PersonalDetails --back--------------> Welcome
//	FamilyDetails   --proceed_to_payment-> Payment         (no validation)
//	FamilyDetails   --back--------------> PersonalDetails
//	Payment         --back--------------> FamilyDetails    (pending order kept)
//	Payment         --payment_confirmed-> Confirmation     (bridge only)
func NewController(emails EmailChecker) *Controller {
	c := &Controller{emails: emails}
	c.wf = workflow.Define[*Session]().
		WithLogger(workflow.NoopLogger{}).
		From(StepWelcome).On(SignalGetStarted).To(StepPersonalDetails).
		From(StepPersonalDetails).On(SignalSubmitDetails).To(StepFamilyDetails).
		Activity(c.validatePersonal).
		From(StepPersonalDetails).On(SignalBack).To(StepWelcome).
		From(StepFamilyDetails).On(SignalProceedToPayment).To(StepPayment).
		From(StepFamilyDetails).On(SignalBack).To(StepPersonalDetails).
		From(StepPayment).On(SignalBack).To(StepFamilyDetails).
		From(StepPayment).On(SignalPaymentConfirmed).To(StepConfirmation).
		MustBuild()
	return c
}

// attach gives a fresh session its own execution, starting at Welcome.
func (c *Controller) attach(s *Session) {
	s.exec = c.wf.NewExecution(context.Background(), StepWelcome,
		workflow.WithHooks(workflow.ExecutionHooks[*Session]{
			OnTransition: func(_ context.Context, from, to, signal string, sess *Session) {
				log.Printf("[session %s] step %s --%s--> %s", sess.ID, from, signal, to)
			},
		}))
}

// Next advances the session one step forward using whichever signal the
// current step accepts.
func (c *Controller) Next(ctx context.Context, s *Session) error {
	switch s.Step() {
	case StepWelcome:
		return s.signal(ctx, SignalGetStarted)
	case StepPersonalDetails:
		return s.signal(ctx, SignalSubmitDetails)
	case StepFamilyDetails:
		return s.signal(ctx, SignalProceedToPayment)
	default:
		return ErrNoForward
	}
}

// Back navigates one step backwards. A pending order created on the payment
// step is NOT rolled back; it is abandoned server-side.
func (c *Controller) Back(ctx context.Context, s *Session) error {
	return s.signal(ctx, SignalBack)
}

// ConfirmPayment moves the session to Confirmation. Only the payment widget
// bridge calls this, after the verify-and-register cycle succeeded.
func (c *Controller) ConfirmPayment(ctx context.Context, s *Session) error {
	return s.signal(ctx, SignalPaymentConfirmed)
}

// validatePersonal gates PersonalDetails → FamilyDetails. The synchronous
// checks run first, then the remote email-uniqueness lookup. Returning an
// error aborts the transition and leaves the session on PersonalDetails.
func (c *Controller) validatePersonal(ctx context.Context, s *Session) error {
	d := s.DraftCopy()
	if fe := ValidatePersonalDetails(&d); fe != nil {
		s.SetFieldError(fe.Field, fe.Message)
		return fmt.Errorf("%w: %s", ErrValidation, fe.Error())
	}

	exists, err := c.emails.CheckEmailExists(ctx, d.Email)
	if err != nil {
		log.Printf("[session %s] email availability check failed: %v", s.ID, err)
		s.SetNotice("Could not verify email availability. Please try again.")
		return ErrEmailCheckUnavailable
	}
	if exists {
		s.SetFieldError(FieldEmail, "An account with this email already exists")
		return fmt.Errorf("%w: email already registered", ErrValidation)
	}
	return nil
}
