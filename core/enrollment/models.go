package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/billing"
)

// Enrollment is a funded tuition plan binding one payer to one school/grade
// for one fee period.
type Enrollment struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	SchoolID string `json:"school_id"`

	ChildName  string `json:"child_name"`
	SchoolName string `json:"school_name"` // denormalized for display
	Grade      string `json:"grade"`

	// TotalFee is locked to the school's published schedule at enrollment time.
	TotalFee              float64   `json:"total_fee"`
	PaidAmount            float64   `json:"paid_amount"`
	NextInstallmentAmount float64   `json:"next_installment_amount"`
	NextDueDate           time.Time `json:"next_due_date"`

	// RawStatus is the last upstream status token; Status is the canonical
	// value derived from it and the ledger facts.
	RawStatus string `json:"raw_status,omitempty"`
	Status    Status `json:"status"`

	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (e Enrollment) RemainingBalance() float64 {
	return e.TotalFee - e.PaidAmount
}

// NewEnrollment contains information needed to enroll a child.
type NewEnrollment struct {
	ChildName string          `json:"child_name" validate:"required"`
	SchoolID  string          `json:"school_id" validate:"required"`
	Grade     string          `json:"grade" validate:"required"`
	FeeType   billing.FeeType `json:"fee_type" validate:"required"`
	PlanType  string          `json:"plan_type" validate:"required,oneof=Weekly Monthly"`
	AvatarURL string          `json:"avatar_url"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.ChildName = core.CleanString(ne.ChildName)
	ne.Grade = core.CleanString(ne.Grade)
	return validate.Struct(ne)
}

// Stats summarizes a school's collection state for its dashboard.
type Stats struct {
	EnrollmentCount  int     `json:"enrollment_count"`
	ExpectedTotal    float64 `json:"expected_total"`
	CollectedTotal   float64 `json:"collected_total"`
	OutstandingTotal float64 `json:"outstanding_total"`
}
