package models

// Gender values accepted for a family member. Empty string means unset.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Relationship values accepted for a family member. Empty string means unset.
var Relationships = []string{"Spouse", "Son", "Daughter", "Father", "Mother", "Other"}

// MaxFamilyMembers caps the number of dependents on a single membership.
const MaxFamilyMembers = 10

// FamilyMember is one dependent on the enrollment. All fields are optional;
// partially filled or blank members are allowed to reach the payment step.
type FamilyMember struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	Relationship string `json:"relationship"`
}

// EnrollmentDraft is the in-progress enrollment record. It lives only in the
// session registry and is never persisted; abandoning the session discards it.
type EnrollmentDraft struct {
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	PhoneNumber       string         `json:"phoneNumber"`
	Password          string         `json:"-"`
	ConfirmPassword   string         `json:"-"`
	Plan              string         `json:"plan"`
	FamilyMemberCount int            `json:"familyMemberCount"`
	FamilyMembers     []FamilyMember `json:"familyMembers"`
}

// NewEnrollmentDraft returns a blank draft on the single annual plan.
func NewEnrollmentDraft() *EnrollmentDraft {
	return &EnrollmentDraft{
		Plan:          PlanAnnual,
		FamilyMembers: []FamilyMember{},
	}
}
