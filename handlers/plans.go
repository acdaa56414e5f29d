package handlers

import (
	"net/http"

	"medimitra-membership-api/models"
	"medimitra-membership-api/utils"
)

// PlansHandler serves the static plan catalog.
type PlansHandler struct{}

func NewPlansHandler() *PlansHandler {
	return &PlansHandler{}
}

func (h *PlansHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	plans := []models.Plan{
		{
			ID:             models.PlanAnnual,
			Name:           "Annual Membership",
			BasePrice:      models.AnnualBasePrice,
			Currency:       "INR",
			DurationDays:   365,
			FamilyDiscount: models.FamilyDiscountPercent,
			MaxFamilyCount: models.MaxFamilyMembers,
			Description:    "One year of MediMitra membership for you and up to ten family members.",
		},
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   plans,
	})
}
