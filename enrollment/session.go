package enrollment

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/im-adarsh/go-statemachine/workflow"

	"medimitra-membership-api/models"
)

// Session is one browser's enrollment in progress: the draft, the step
// machine execution, per-step field errors, the pending order and the last
// terminal outcome. Everything lives in memory; a session that expires or a
// process that restarts discards the enrollment, matching the
// draft-is-not-persisted contract.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	lastSeen    time.Time
	draft       *models.EnrollmentDraft
	fieldErrors map[string]string
	notice      string
	pending     *models.PendingOrder
	outcome     *models.OutcomeRecord

	// busy gates the pay action while an order-creation or verification
	// call is outstanding, so rapid repeated clicks cannot create
	// duplicate orders.
	busy atomic.Bool

	exec *workflow.Execution[*Session]
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		CreatedAt:   now,
		lastSeen:    now,
		draft:       models.NewEnrollmentDraft(),
		fieldErrors: make(map[string]string),
	}
}

// Step returns the current step of the enrollment state machine.
func (s *Session) Step() string {
	return s.exec.CurrentState()
}

// UpdateField writes one draft field and clears any validation error recorded
// against it, so editing the offending field resets its message.
func (s *Session) UpdateField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := applyField(s.draft, field, value); err != nil {
		return err
	}
	delete(s.fieldErrors, field)
	return nil
}

// SetFamilyMemberCount resizes the family member list to n (0..10),
// preserving existing entries by index.
func (s *Session) SetFamilyMemberCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resizeFamily(s.draft, n)
}

// UpdateFamilyMember mutates one family member field in place.
func (s *Session) UpdateFamilyMember(index int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return applyMemberField(s.draft, index, field, value)
}

// DraftCopy returns a deep copy of the draft safe to read outside the
// session lock.
func (s *Session) DraftCopy() models.EnrollmentDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *s.draft
	d.FamilyMembers = make([]models.FamilyMember, len(s.draft.FamilyMembers))
	copy(d.FamilyMembers, s.draft.FamilyMembers)
	return d
}

// Quote prices the current draft.
func (s *Session) Quote() models.PriceQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return QuoteDraft(s.draft)
}

// SetFieldError records the single surfaced validation error for this
// submission attempt.
func (s *Session) SetFieldError(field, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldErrors[field] = message
}

// FieldErrors returns a copy of the current field error map.
func (s *Session) FieldErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = v
	}
	return out
}

// SetNotice records a toast-equivalent side notification, used for failures
// that block a transition without belonging to any field.
func (s *Session) SetNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = msg
}

// ConsumeNotice returns the pending notice and clears it.
func (s *Session) ConsumeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = ""
	return n
}

// SetPendingOrder holds the server-acknowledged order in memory between
// order creation and payment completion. Going back does not clear it; the
// abandoned order is simply never reused.
func (s *Session) SetPendingOrder(p *models.PendingOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
}

// PendingOrder returns the held order, or nil.
func (s *Session) PendingOrder() *models.PendingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetOutcome overwrites the session's terminal outcome record; only one is
// visible at a time.
func (s *Session) SetOutcome(o *models.OutcomeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = o
}

// Outcome returns the current outcome record, or nil.
func (s *Session) Outcome() *models.OutcomeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// ClearOutcome hides the dialog. It never triggers a step transition; the
// move to Confirmation, if any, already happened before the dialog was shown.
func (s *Session) ClearOutcome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = nil
}

// BeginPayment marks a payment attempt in flight. It returns false when one
// is already outstanding.
func (s *Session) BeginPayment() bool {
	return s.busy.CompareAndSwap(false, true)
}

// EndPayment releases the in-flight flag once the attempt reached a terminal
// outcome or failed to start.
func (s *Session) EndPayment() {
	s.busy.Store(false)
}

// PaymentInFlight reports whether a payment attempt is outstanding.
func (s *Session) PaymentInFlight() bool {
	return s.busy.Load()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry is the in-memory session store. Sessions are keyed by the opaque
// id carried in the browser cookie and swept after sitting idle past the TTL.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Create registers a fresh session attached to the controller's step machine.
func (r *Registry) Create(id string, ctrl *Controller) *Session {
	s := newSession(id)
	ctrl.attach(s)
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s
}

// Get returns the session for id, refreshing its idle clock.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Delete drops a session and cancels its step machine execution.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.exec.Cancel()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the sweeper.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.ttl)
			r.mu.Lock()
			for id, s := range r.sessions {
				if s.idleSince().Before(cutoff) {
					s.exec.Cancel()
					delete(r.sessions, id)
				}
			}
			r.mu.Unlock()
		}
	}
}

// signal forwards to the underlying execution.
func (s *Session) signal(ctx context.Context, name string) error {
	return s.exec.Signal(ctx, name, s)
}
