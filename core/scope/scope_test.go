package scope

import (
	"testing"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/session"
)

var (
	allEnrollments = []enrollment.Enrollment{
		{ID: "e-1", OwnerID: "g-1", SchoolID: "sch-1"},
		{ID: "e-2", OwnerID: "g-1", SchoolID: "sch-2"},
		{ID: "e-3", OwnerID: "g-2", SchoolID: "sch-1"},
	}
	allTransactions = []ledger.Transaction{
		{ID: "t-1", PayerID: "g-1", SchoolID: "sch-1"},
		{ID: "t-2", PayerID: "g-2", SchoolID: "sch-1"},
		{ID: "t-3", PayerID: "g-2", SchoolID: "sch-2"},
	}
	allNotifications = []notification.Notification{
		{ID: "n-1", AccountID: "g-1"},
		{ID: "n-2", AccountID: "g-2"},
		{ID: "n-3"}, // broadcast
	}
)

func guardianSession(id string) session.Session {
	return session.New(account.Account{ID: id, Role: account.RoleGuardian})
}

func schoolAdminSession(schoolID string) session.Session {
	return session.New(account.Account{ID: "adm-1", Role: account.RoleSchoolAdmin, SchoolID: schoolID})
}

func ownerSession() session.Session {
	return session.New(account.Account{ID: "owner-1", Role: account.RoleOwner})
}

func enrollmentIDs(enrs []enrollment.Enrollment) []string {
	ids := make([]string, 0, len(enrs))
	for _, e := range enrs {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestEnrollments(t *testing.T) {
	tests := []struct {
		name string
		sess session.Session
		want []string
	}{
		{name: "owner sees all", sess: ownerSession(), want: []string{"e-1", "e-2", "e-3"}},
		{name: "guardian sees own", sess: guardianSession("g-1"), want: []string{"e-1", "e-2"}},
		{name: "other guardian sees own", sess: guardianSession("g-2"), want: []string{"e-3"}},
		{name: "stranger sees none", sess: guardianSession("g-9"), want: []string{}},
		{name: "school admin sees school", sess: schoolAdminSession("sch-1"), want: []string{"e-1", "e-3"}},
		{name: "school admin without school sees none", sess: schoolAdminSession(""), want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enrollmentIDs(Enrollments(tt.sess, allEnrollments))
			if len(got) != len(tt.want) {
				t.Fatalf("Enrollments() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Enrollments() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestEnrollmentsIsIdempotent(t *testing.T) {
	sess := guardianSession("g-1")
	once := Enrollments(sess, allEnrollments)
	twice := Enrollments(sess, once)
	if len(once) != len(twice) {
		t.Fatalf("re-scoping changed the result: %d != %d", len(once), len(twice))
	}
}

func TestTransactions(t *testing.T) {
	if got := Transactions(ownerSession(), allTransactions); len(got) != 3 {
		t.Errorf("owner sees %d transactions, want 3", len(got))
	}
	if got := Transactions(guardianSession("g-2"), allTransactions); len(got) != 2 {
		t.Errorf("guardian sees %d transactions, want 2", len(got))
	}
	if got := Transactions(schoolAdminSession("sch-1"), allTransactions); len(got) != 2 {
		t.Errorf("school admin sees %d transactions, want 2", len(got))
	}
	if got := Transactions(schoolAdminSession(""), allTransactions); len(got) != 0 {
		t.Errorf("unscoped school admin sees %d transactions, want 0", len(got))
	}
}

func TestTransactionsWhileImpersonating(t *testing.T) {
	sess := ownerSession()
	if err := sess.EnterImpersonation(account.RoleGuardian, "", "g-1", nil); err != nil {
		t.Fatalf("EnterImpersonation() failed: %v", err)
	}
	got := Transactions(sess, allTransactions)
	if len(got) != 1 || got[0].ID != "t-1" {
		t.Errorf("impersonating owner sees %v, want [t-1]", got)
	}
}

func TestNotifications(t *testing.T) {
	if got := Notifications(ownerSession(), allNotifications); len(got) != 3 {
		t.Errorf("owner sees %d notifications, want 3", len(got))
	}

	got := Notifications(guardianSession("g-1"), allNotifications)
	if len(got) != 2 {
		t.Fatalf("guardian sees %d notifications, want 2", len(got))
	}
	// broadcasts are always included
	var hasBroadcast bool
	for _, n := range got {
		if n.IsBroadcast() {
			hasBroadcast = true
		}
		if !n.IsBroadcast() && n.AccountID != "g-1" {
			t.Errorf("guardian sees foreign notification %s", n.ID)
		}
	}
	if !hasBroadcast {
		t.Error("broadcast missing from guardian scope")
	}
}
