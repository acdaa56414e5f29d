package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/im-adarsh/go-statemachine/workflow"

	"medimitra-membership-api/enrollment"
	"medimitra-membership-api/models"
	"medimitra-membership-api/utils"
)

const sessionCookieName = "enrollment-session"

// EnrollmentHandler exposes the multi-step enrollment flow. The browser
// cookie carries only an opaque session id; all enrollment state lives in the
// in-memory registry.
type EnrollmentHandler struct {
	registry *enrollment.Registry
	steps    *enrollment.Controller
	store    *sessions.CookieStore
}

func NewEnrollmentHandler(registry *enrollment.Registry, steps *enrollment.Controller, store *sessions.CookieStore) *EnrollmentHandler {
	return &EnrollmentHandler{
		registry: registry,
		steps:    steps,
		store:    store,
	}
}

// snapshot is the flow state returned after every mutating call, so the
// client never needs a second round trip to re-render.
type snapshot struct {
	Step              string                  `json:"step"`
	Draft             models.EnrollmentDraft  `json:"draft"`
	FamilyMemberCount int                     `json:"family_member_count"`
	Quote             models.PriceQuote       `json:"quote"`
	FieldErrors       map[string]string       `json:"field_errors,omitempty"`
	Notice            string                  `json:"notice,omitempty"`
	Outcome           *models.OutcomeRecord   `json:"outcome,omitempty"`
}

func (h *EnrollmentHandler) snapshotOf(s *enrollment.Session) snapshot {
	draft := s.DraftCopy()
	return snapshot{
		Step:              s.Step(),
		Draft:             draft,
		FamilyMemberCount: draft.FamilyMemberCount,
		Quote:             s.Quote(),
		FieldErrors:       s.FieldErrors(),
		Notice:            s.ConsumeNotice(),
		Outcome:           s.Outcome(),
	}
}

// Start opens a fresh enrollment session and sets the session cookie. An
// existing session on the cookie is replaced; starting over always begins at
// the welcome step with a blank draft.
func (h *EnrollmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	cookie, _ := h.store.Get(r, sessionCookieName)

	if old, ok := cookie.Values["id"].(string); ok && old != "" {
		h.registry.Delete(old)
	}

	id := uuid.New().String()
	s := h.registry.Create(id, h.steps)

	cookie.Values["id"] = id
	if err := cookie.Save(r, w); err != nil {
		log.Printf("Failed to save session cookie: %v", err)
		h.registry.Delete(id)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Could not start enrollment session")
		return
	}

	log.Printf("[session %s] enrollment started", id)
	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.snapshotOf(s),
	})
}

// session resolves the cookie to a live registry session. A missing or
// expired session yields a nil session and a response already written.
func (h *EnrollmentHandler) session(w http.ResponseWriter, r *http.Request) *enrollment.Session {
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

// Snapshot returns the current flow state without mutating anything.
func (h *EnrollmentHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.snapshotOf(s),
	})
}

// UpdateField writes one personal-details field into the draft.
func (h *EnrollmentHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.UpdateField(req.Field, req.Value); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.snapshotOf(s),
	})
}

// SetFamilyCount resizes the family member list, preserving entries by index.
func (h *EnrollmentHandler) SetFamilyCount(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.SetFamilyMemberCount(req.Count); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.snapshotOf(s),
	})
}

// UpdateFamilyMember writes one field of one family member.
func (h *EnrollmentHandler) UpdateFamilyMember(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req struct {
		Index int    `json:"index"`
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.UpdateFamilyMember(req.Index, req.Field, req.Value); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.snapshotOf(s),
	})
}

// Next advances the flow one step. A failed validation or email check keeps
// the session on its current step and reports why.
func (h *EnrollmentHandler) Next(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	err := h.steps.Next(r.Context(), s)
	switch {
	case err == nil:
		utils.SendSuccessResponse(w, models.APIResponse{
			Status: "success",
			Data:   h.snapshotOf(s),
		})
	case errors.Is(err, enrollment.ErrValidation):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(models.APIResponse{
			Status:  "error",
			Message: "Please correct the highlighted fields",
			Data:    models.FieldErrorResponse{FieldErrors: s.FieldErrors()},
		})
	case errors.Is(err, enrollment.ErrEmailCheckUnavailable):
		utils.SendErrorResponse(w, http.StatusServiceUnavailable, s.ConsumeNotice())
	case errors.Is(err, enrollment.ErrNoForward), errors.Is(err, workflow.ErrUnknownSignal):
		utils.SendErrorResponse(w, http.StatusConflict, "Cannot continue from the current step")
	default:
		log.Printf("[session %s] step advance failed: %v", s.ID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Could not continue, please try again")
	}
}

// Back navigates one step backwards.
func (h *EnrollmentHandler) Back(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	if err := h.steps.Back(r.Context(), s); err != nil {
		if errors.Is(err, workflow.ErrUnknownSignal) {
			utils.SendErrorResponse(w, http.StatusConflict, "Cannot go back from the current step")
			return
		}
		log.Printf("[session %s] step back failed: %v", s.ID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Could not go back, please try again")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.snapshotOf(s),
	})
}

// Quote prices the current draft.
func (h *EnrollmentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   s.Quote(),
	})
}

// Outcome returns the pending outcome dialog record, if any.
func (h *EnrollmentHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	outcome := s.Outcome()
	if outcome == nil {
		utils.SendErrorResponse(w, http.StatusNotFound, "No payment outcome to show")
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   outcome,
	})
}

// DismissOutcome hides the outcome dialog. The step does not change; a
// success outcome already moved the session to Confirmation before the
// dialog was shown.
func (h *EnrollmentHandler) DismissOutcome(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	s.ClearOutcome()
	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.snapshotOf(s),
	})
}
