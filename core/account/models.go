package account

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/lopay/core"
)

// Roles
const (
	RoleGuardian    = "guardian"
	RoleStudent     = "student"
	RoleSchoolAdmin = "school_administrator"
	RoleOwner       = "platform_owner"
)

var AllRoles = []string{RoleGuardian, RoleStudent, RoleSchoolAdmin, RoleOwner}

// Account is an identity record: a guardian or university student funding
// tuition, a school's administrator, or the platform owner.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `json:"role"`

	// school affiliation; set for school administrators only
	SchoolID string `json:"school_id,omitempty"`

	// settlement bank details; set for school administrators only
	BankName          string `json:"bank_name,omitempty"`
	BankAccountName   string `json:"bank_account_name,omitempty"`
	BankAccountNumber string `json:"bank_account_number,omitempty"`

	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Account) IsGuardian() bool    { return a.Role == RoleGuardian }
func (a *Account) IsStudent() bool     { return a.Role == RoleStudent }
func (a *Account) IsSchoolAdmin() bool { return a.Role == RoleSchoolAdmin }
func (a *Account) IsOwner() bool       { return a.Role == RoleOwner }

// NewAccount contains information needed to sign a new Account up.
type NewAccount struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,knownrole"`

	// school administrator extras
	SchoolID          string `json:"school_id"`
	BankName          string `json:"bank_name"`
	BankAccountName   string `json:"bank_account_name"`
	BankAccountNumber string `json:"bank_account_number"`
}

func (na *NewAccount) Validate(validate *validator.Validate, svc ServiceInterface) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	if na.Role == "" {
		na.Role = RoleGuardian
	}

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckUniqueness(na.Email)
}

// UpdateAccount defines what information may be provided to modify an existing Account.
type UpdateAccount struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	IsActive    *bool  `json:"is_active"`

	BankName          string `json:"bank_name"`
	BankAccountName   string `json:"bank_account_name"`
	BankAccountNumber string `json:"bank_account_number"`

	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (ua *UpdateAccount) Validate(validate *validator.Validate, orig Account) error {
	name := core.CleanString(ua.Name)
	if name != "" {
		ua.Name = name
	} else {
		ua.Name = orig.Name
	}
	return validate.Struct(ua)
}
