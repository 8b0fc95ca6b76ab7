package session

import (
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/school"
)

// ErrNotOwner is returned when anyone but the platform owner tries to
// impersonate another role or account.
var ErrNotOwner = errors.New("only the platform owner may impersonate")

// Session is the effective actor for one authenticated interaction: the
// signed-in account plus the role/school/account it is currently acting as.
// It is rebuilt at login and carried explicitly instead of read from ambient
// globals, so scoping and impersonation stay testable.
type Session struct {
	Account account.Account

	// Role is the effective role; it differs from Account.Role only while a
	// platform owner is impersonating.
	Role string

	// SchoolID is the effective school scope for school administrator views.
	SchoolID string

	// ImpersonatedAccountID targets a specific guardian/student account while
	// impersonating; empty otherwise.
	ImpersonatedAccountID string
}

// New derives a fresh session from an authenticated account, impersonation
// cleared.
func New(acct account.Account) Session {
	return Session{
		Account:  acct,
		Role:     acct.Role,
		SchoolID: acct.SchoolID,
	}
}

// EffectiveAccountID is the account whose records the session may act on.
func (s Session) EffectiveAccountID() string {
	if s.ImpersonatedAccountID != "" {
		return s.ImpersonatedAccountID
	}
	return s.Account.ID
}

func (s Session) IsImpersonating() bool {
	return s.Role != s.Account.Role || s.ImpersonatedAccountID != "" || s.SchoolID != s.Account.SchoolID
}

// IsUnscopedOwner reports whether the session sees everything unfiltered.
func (s Session) IsUnscopedOwner() bool {
	return s.Account.IsOwner() && s.Role == account.RoleOwner
}

// EnterImpersonation switches the session's effective role/scope/target. Only
// the platform owner may call it. When a school administrator view is
// requested without a resolvable school, the session degrades to a plain
// guardian view rather than erroring.
func (s *Session) EnterImpersonation(role, schoolID, accountID string, schools []school.School) error {
	if !s.Account.IsOwner() {
		return ErrNotOwner
	}

	switch role {
	case account.RoleOwner:
		s.ExitImpersonation()
		return nil

	case account.RoleSchoolAdmin:
		if schoolID == "" && len(schools) > 0 {
			schoolID = schools[0].ID
		}
		if schoolID == "" {
			// no school to scope to; fall back to a plain guardian view
			s.Role = account.RoleGuardian
			s.SchoolID = ""
			s.ImpersonatedAccountID = ""
			return nil
		}
		s.Role = role
		s.SchoolID = schoolID
		s.ImpersonatedAccountID = ""
		return nil

	case account.RoleGuardian, account.RoleStudent:
		s.Role = role
		s.SchoolID = ""
		s.ImpersonatedAccountID = accountID
		return nil
	}

	// unknown role requested; defined fallback, not an error
	s.Role = account.RoleGuardian
	s.SchoolID = ""
	s.ImpersonatedAccountID = ""
	return nil
}

// ExitImpersonation returns the session to the owner's own view.
func (s *Session) ExitImpersonation() {
	s.Role = s.Account.Role
	s.SchoolID = s.Account.SchoolID
	s.ImpersonatedAccountID = ""
}

// ClearDeletedTarget drops the impersonation target when it no longer
// resolves to a live account. Call on read; never leave a session pointing at
// a deleted target.
func (s *Session) ClearDeletedTarget(exists func(id string) bool) {
	if s.ImpersonatedAccountID != "" && !exists(s.ImpersonatedAccountID) {
		s.ImpersonatedAccountID = ""
	}
}
