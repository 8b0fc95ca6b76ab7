package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lopay/core"
)

// School is an institution collecting tuition through the platform.
type School struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	StudentCount int    `json:"student_count"`

	// FeeSchedule maps a grade/level label to its published fee amount.
	FeeSchedule map[string]float64 `json:"fee_schedule,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewSchool contains information needed to onboard a new School.
type NewSchool struct {
	Name         string             `json:"name" validate:"required"`
	Address      string             `json:"address"`
	ContactEmail string             `json:"contact_email" validate:"omitempty,email"`
	FeeSchedule  map[string]float64 `json:"fee_schedule"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.ContactEmail = core.CleanString(ns.ContactEmail, true /* lower */)
	return validate.Struct(ns)
}

// UpdateSchool defines what information may be provided to modify an existing School.
type UpdateSchool struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

func (us *UpdateSchool) Validate(validate *validator.Validate, orig School) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	us.ContactEmail = core.CleanString(us.ContactEmail, true /* lower */)
	if us.ContactEmail == "" {
		us.ContactEmail = orig.ContactEmail
	}
	return validate.Struct(us)
}

// UpsertFee publishes or updates one grade's fee on a school's schedule.
type UpsertFee struct {
	Grade  string  `json:"grade" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (uf *UpsertFee) Validate(validate *validator.Validate) error {
	uf.Grade = core.CleanString(uf.Grade)
	return validate.Struct(uf)
}
