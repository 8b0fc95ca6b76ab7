package ledger_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/session"
	inmemdb "github.com/trezcool/lopay/storage/database/inmem"
	testutil "github.com/trezcool/lopay/tests"
)

type fixture struct {
	eng     *ledger.Engine
	enrRepo enrollment.Repository
	txnRepo ledger.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := inmemdb.NewDB()
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	txnRepo := inmemdb.NewTransactionRepository(db)
	return &fixture{
		eng:     ledger.NewEngine(txnRepo, enrRepo, nil, nil),
		enrRepo: enrRepo,
		txnRepo: txnRepo,
	}
}

func ownerSession() session.Session {
	return session.New(account.Account{ID: "owner-1", Role: account.RoleOwner})
}

func adminSession(schoolID string) session.Session {
	return session.New(account.Account{ID: "adm-" + schoolID, Role: account.RoleSchoolAdmin, SchoolID: schoolID})
}

func TestEngineSubmit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.enrRepo, "g-1", "sch-1", "Amina", 100000, 0, enrollment.StatusPending)

	txn, err := f.eng.Submit(ctx, "g-1", enr.ID, 25000, "https://receipts/1.png")
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if txn.Status != ledger.TxPending {
		t.Errorf("Status = %s, want Pending", txn.Status)
	}
	if txn.SchoolID != "sch-1" || txn.ChildName != "Amina" {
		t.Errorf("denormalized fields = (%s, %s), want (sch-1, Amina)", txn.SchoolID, txn.ChildName)
	}

	// balance untouched until approval
	refreshed, err := f.enrRepo.GetEnrollmentByID(ctx, enr.ID)
	if err != nil {
		t.Fatalf("GetEnrollmentByID() failed: %v", err)
	}
	if refreshed.PaidAmount != 0 {
		t.Errorf("PaidAmount = %v, want 0", refreshed.PaidAmount)
	}
}

func TestEngineSubmitValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.eng.Submit(ctx, "g-1", "nope", 100, ""); errors.Cause(err) != enrollment.ErrNotFound {
		t.Errorf("Submit() on unknown enrollment error = %v, want ErrNotFound", err)
	}

	enr := testutil.CreateEnrollment(t, f.enrRepo, "g-1", "sch-1", "Amina", 100000, 0, enrollment.StatusPending)
	if _, err := f.eng.Submit(ctx, "g-1", enr.ID, 0, ""); err == nil {
		t.Error("Submit() with zero amount expected an error")
	}
	if _, err := f.eng.Submit(ctx, "g-1", enr.ID, -5, ""); err == nil {
		t.Error("Submit() with negative amount expected an error")
	}
}

func TestEngineApprove(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// 80000 paid of 100000; approving 25000 overshoots and must clamp
	enr := testutil.CreateEnrollment(t, f.enrRepo, "g-1", "sch-1", "Amina", 100000, 80000, enrollment.StatusActive)
	enr.NextInstallmentAmount = 5000
	if _, err := f.enrRepo.UpdateEnrollment(ctx, enr); err != nil {
		t.Fatalf("UpdateEnrollment() failed: %v", err)
	}
	txn := testutil.CreatePendingTransaction(t, f.txnRepo, "g-1", enr, 25000)

	got, err := f.eng.Approve(ctx, adminSession("sch-1"), txn.ID)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if got.Status != ledger.TxSuccessful {
		t.Errorf("Status = %s, want Successful", got.Status)
	}

	refreshed, err := f.enrRepo.GetEnrollmentByID(ctx, enr.ID)
	if err != nil {
		t.Fatalf("GetEnrollmentByID() failed: %v", err)
	}
	if refreshed.PaidAmount != 100000 {
		t.Errorf("PaidAmount = %v, want clamped to 100000", refreshed.PaidAmount)
	}
	if refreshed.Status != enrollment.StatusCompleted {
		t.Errorf("Status = %s, want Completed", refreshed.Status)
	}
	if refreshed.NextInstallmentAmount != 0 {
		t.Errorf("NextInstallmentAmount = %v, want 0", refreshed.NextInstallmentAmount)
	}
	if refreshed.RemainingBalance() != 0 {
		t.Errorf("RemainingBalance() = %v, want 0", refreshed.RemainingBalance())
	}
}

func TestEngineApproveTwice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.enrRepo, "g-1", "sch-1", "Amina", 100000, 0, enrollment.StatusPending)
	txn := testutil.CreatePendingTransaction(t, f.txnRepo, "g-1", enr, 10000)

	if _, err := f.eng.Approve(ctx, ownerSession(), txn.ID); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if _, err := f.eng.Approve(ctx, ownerSession(), txn.ID); errors.Cause(err) != ledger.ErrAlreadyResolved {
		t.Fatalf("second Approve() error = %v, want ErrAlreadyResolved", err)
	}

	// no double credit
	refreshed, _ := f.enrRepo.GetEnrollmentByID(ctx, enr.ID)
	if refreshed.PaidAmount != 10000 {
		t.Errorf("PaidAmount = %v, want 10000", refreshed.PaidAmount)
	}
}

func TestEngineApprovePermissions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.enrRepo, "g-1", "sch-1", "Amina", 100000, 0, enrollment.StatusPending)
	txn := testutil.CreatePendingTransaction(t, f.txnRepo, "g-1", enr, 10000)

	tests := []struct {
		name string
		sess session.Session
	}{
		{name: "guardian", sess: session.New(account.Account{ID: "g-1", Role: account.RoleGuardian})},
		{name: "payer themselves", sess: session.New(account.Account{ID: "g-1", Role: account.RoleStudent})},
		{name: "admin of another school", sess: adminSession("sch-2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.eng.Approve(ctx, tt.sess, txn.ID); errors.Cause(err) != ledger.ErrPermissionDenied {
				t.Errorf("Approve() error = %v, want ErrPermissionDenied", err)
			}
		})
	}

	// transaction and enrollment stay untouched after denied attempts
	gotTxn, _ := f.txnRepo.GetTransactionByID(ctx, txn.ID)
	if gotTxn.Status != ledger.TxPending {
		t.Errorf("Status = %s, want still Pending", gotTxn.Status)
	}
}

func TestEngineDecline(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.enrRepo, "g-1", "sch-1", "Amina", 100000, 30000, enrollment.StatusActive)
	txn := testutil.CreatePendingTransaction(t, f.txnRepo, "g-1", enr, 10000)

	got, err := f.eng.Decline(ctx, adminSession("sch-1"), txn.ID)
	if err != nil {
		t.Fatalf("Decline() failed: %v", err)
	}
	if got.Status != ledger.TxFailed {
		t.Errorf("Status = %s, want Failed", got.Status)
	}

	// the funds were never applied; the enrollment is untouched
	refreshed, _ := f.enrRepo.GetEnrollmentByID(ctx, enr.ID)
	if refreshed.PaidAmount != 30000 {
		t.Errorf("PaidAmount = %v, want 30000", refreshed.PaidAmount)
	}
	if refreshed.Status != enrollment.StatusActive {
		t.Errorf("Status = %s, want Active", refreshed.Status)
	}

	if _, err := f.eng.Decline(ctx, adminSession("sch-1"), txn.ID); errors.Cause(err) != ledger.ErrAlreadyResolved {
		t.Errorf("second Decline() error = %v, want ErrAlreadyResolved", err)
	}
}

func TestEngineDirectPay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	enr := testutil.CreateEnrollment(t, f.enrRepo, "g-1", "sch-1", "Amina", 100000, 0, enrollment.StatusPending)

	txn, err := f.eng.DirectPay(ctx, "g-1", enr.ID, 40000)
	if err != nil {
		t.Fatalf("DirectPay() failed: %v", err)
	}
	if txn.Status != ledger.TxSuccessful {
		t.Errorf("Status = %s, want Successful", txn.Status)
	}

	refreshed, _ := f.enrRepo.GetEnrollmentByID(ctx, enr.ID)
	if refreshed.PaidAmount != 40000 {
		t.Errorf("PaidAmount = %v, want 40000", refreshed.PaidAmount)
	}
	if refreshed.Status != enrollment.StatusActive {
		t.Errorf("Status = %s, want Active", refreshed.Status)
	}

	// paying the rest completes the enrollment
	if _, err := f.eng.DirectPay(ctx, "g-1", enr.ID, 60000); err != nil {
		t.Fatalf("DirectPay() failed: %v", err)
	}
	refreshed, _ = f.enrRepo.GetEnrollmentByID(ctx, enr.ID)
	if refreshed.Status != enrollment.StatusCompleted {
		t.Errorf("Status = %s, want Completed", refreshed.Status)
	}
	if refreshed.RemainingBalance() != 0 {
		t.Errorf("RemainingBalance() = %v, want 0", refreshed.RemainingBalance())
	}
}
