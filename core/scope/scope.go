// Package scope filters the global collections down to what one session may
// see. The filters are pure and idempotent: applying them to an
// already-scoped collection never widens access.
package scope

import (
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/session"
)

// Enrollments returns the enrollments the session may see.
func Enrollments(sess session.Session, all []enrollment.Enrollment) []enrollment.Enrollment {
	if sess.IsUnscopedOwner() {
		return all
	}
	scoped := make([]enrollment.Enrollment, 0, len(all))
	switch sess.Role {
	case account.RoleSchoolAdmin:
		if sess.SchoolID == "" {
			return scoped
		}
		for _, enr := range all {
			if enr.SchoolID == sess.SchoolID {
				scoped = append(scoped, enr)
			}
		}
	default:
		for _, enr := range all {
			if enr.OwnerID == sess.EffectiveAccountID() {
				scoped = append(scoped, enr)
			}
		}
	}
	return scoped
}

// Transactions returns the transactions the session may see.
func Transactions(sess session.Session, all []ledger.Transaction) []ledger.Transaction {
	if sess.IsUnscopedOwner() {
		return all
	}
	scoped := make([]ledger.Transaction, 0, len(all))
	switch sess.Role {
	case account.RoleSchoolAdmin:
		if sess.SchoolID == "" {
			return scoped
		}
		for _, txn := range all {
			if txn.SchoolID == sess.SchoolID {
				scoped = append(scoped, txn)
			}
		}
	default:
		for _, txn := range all {
			if txn.PayerID == sess.EffectiveAccountID() {
				scoped = append(scoped, txn)
			}
		}
	}
	return scoped
}

// Notifications returns the notifications the session may see. Broadcasts
// (no target account) are always included.
func Notifications(sess session.Session, all []notification.Notification) []notification.Notification {
	if sess.IsUnscopedOwner() {
		return all
	}
	scoped := make([]notification.Notification, 0, len(all))
	for _, notif := range all {
		if notif.IsBroadcast() || notif.AccountID == sess.EffectiveAccountID() {
			scoped = append(scoped, notif)
		}
	}
	return scoped
}
