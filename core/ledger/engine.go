package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/session"
)

var (
	ErrNotFound = errors.New("transaction not found")

	// ErrAlreadyResolved rejects approve/decline on a transaction that is no
	// longer Pending. Approve is safely non-idempotent: a repeat call fails
	// instead of double-crediting.
	ErrAlreadyResolved = errors.New("transaction already resolved")

	ErrPermissionDenied = errors.New("not allowed to resolve payments for this enrollment")

	errInvalidAmount = errors.New("amount must be positive")
)

type (
	// Repository persists transactions. The resolution methods commit the
	// transaction's status change and its enrollment's balance/status change
	// as one unit; a reader never observes one without the other.
	Repository interface {
		CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error)
		QueryAllTransactions(ctx context.Context) ([]Transaction, error)
		GetTransactionByID(ctx context.Context, id string) (Transaction, error)
		// CommitResolution persists the resolved transaction and, when enr is
		// non-nil, the enrollment's new balance and status.
		CommitResolution(ctx context.Context, txn Transaction, enr *enrollment.Enrollment) error
		// CommitDirectPayment creates an already-successful transaction and
		// updates its enrollment in the same unit.
		CommitDirectPayment(ctx context.Context, txn Transaction, enr enrollment.Enrollment) (Transaction, error)
	}

	// Engine owns the invariant between an enrollment's total fee, paid
	// amount, outstanding balance and status under payment events.
	Engine struct {
		repo        Repository
		enrollments enrollment.Repository
		notifSvc    *notification.Service
		logger      core.Logger
	}
)

func NewEngine(repo Repository, enrollments enrollment.Repository, notifSvc *notification.Service, logger core.Logger) *Engine {
	return &Engine{repo: repo, enrollments: enrollments, notifSvc: notifSvc, logger: logger}
}

// Submit records a payment awaiting verification. The enrollment balance is
// untouched until the payment is approved.
func (eng *Engine) Submit(ctx context.Context, payerID, enrollmentID string, amount float64, receiptURL string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, core.NewValidationError(errInvalidAmount,
			core.FieldError{Field: "amount", Error: errInvalidAmount.Error()})
	}
	enr, err := eng.enrollments.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return Transaction{}, errors.Wrap(err, "getting enrollment")
	}

	txn, err := eng.repo.CreateTransaction(ctx, Transaction{
		ID:           uuid.New().String(),
		PayerID:      payerID,
		EnrollmentID: enr.ID,
		SchoolID:     enr.SchoolID,
		ChildName:    enr.ChildName,
		SchoolName:   enr.SchoolName,
		Amount:       amount,
		Status:       TxPending,
		ReceiptURL:   receiptURL,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Transaction{}, errors.Wrap(err, "creating transaction")
	}

	eng.notify(ctx, payerID, "Payment Submitted",
		fmt.Sprintf("Your payment of %.2f for %s is awaiting confirmation.", amount, enr.ChildName),
		notification.SeverityInfo)
	return txn, nil
}

// Approve confirms a pending payment: the transaction becomes Successful and
// its enrollment is credited, clamped at the total fee, in one atomic unit.
// Only a school administrator for the enrollment's school or the platform
// owner may approve.
func (eng *Engine) Approve(ctx context.Context, sess session.Session, transactionID string) (Transaction, error) {
	txn, enr, err := eng.resolvable(ctx, sess, transactionID)
	if err != nil {
		return Transaction{}, err
	}

	txn.Status = TxSuccessful
	if enr != nil {
		applyPayment(enr, txn.Amount)
	}
	if err := eng.repo.CommitResolution(ctx, txn, enr); err != nil {
		// no transition occurred; leave caller state untouched
		return Transaction{}, errors.Wrap(err, "committing approval")
	}

	eng.notify(ctx, txn.PayerID, "Payment Approved",
		fmt.Sprintf("Your payment of %.2f for %s has been confirmed.", txn.Amount, txn.ChildName),
		notification.SeveritySuccess)
	return txn, nil
}

// Decline rejects a pending payment. The enrollment balance is not touched;
// the funds were never applied.
func (eng *Engine) Decline(ctx context.Context, sess session.Session, transactionID string) (Transaction, error) {
	txn, _, err := eng.resolvable(ctx, sess, transactionID)
	if err != nil {
		return Transaction{}, err
	}

	txn.Status = TxFailed
	if err := eng.repo.CommitResolution(ctx, txn, nil); err != nil {
		return Transaction{}, errors.Wrap(err, "committing decline")
	}

	eng.notify(ctx, txn.PayerID, "Payment Declined",
		fmt.Sprintf("Your payment of %.2f for %s was declined.", txn.Amount, txn.ChildName),
		notification.SeverityError)
	return txn, nil
}

// DirectPay records and applies a payment in one step, for rails that confirm
// synchronously. It converges on the same balance invariant as the manual
// submit/approve path.
func (eng *Engine) DirectPay(ctx context.Context, payerID, enrollmentID string, amount float64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, core.NewValidationError(errInvalidAmount,
			core.FieldError{Field: "amount", Error: errInvalidAmount.Error()})
	}
	enr, err := eng.enrollments.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return Transaction{}, errors.Wrap(err, "getting enrollment")
	}

	txn := Transaction{
		ID:           uuid.New().String(),
		PayerID:      payerID,
		EnrollmentID: enr.ID,
		SchoolID:     enr.SchoolID,
		ChildName:    enr.ChildName,
		SchoolName:   enr.SchoolName,
		Amount:       amount,
		Status:       TxSuccessful,
		CreatedAt:    time.Now().UTC(),
	}
	applyPayment(&enr, amount)

	txn, err = eng.repo.CommitDirectPayment(ctx, txn, enr)
	if err != nil {
		return Transaction{}, errors.Wrap(err, "committing direct payment")
	}

	eng.notify(ctx, payerID, "Payment Successful",
		fmt.Sprintf("%.2f has been recorded for %s.", amount, enr.ChildName),
		notification.SeveritySuccess)
	return txn, nil
}

func (eng *Engine) QueryAll(ctx context.Context) ([]Transaction, error) {
	return eng.repo.QueryAllTransactions(ctx)
}

func (eng *Engine) GetByID(ctx context.Context, id string) (Transaction, error) {
	return eng.repo.GetTransactionByID(ctx, id)
}

// resolvable loads a transaction and checks that the session may resolve it
// and that it is still pending. The scope check happens before any state is
// returned.
func (eng *Engine) resolvable(ctx context.Context, sess session.Session, transactionID string) (Transaction, *enrollment.Enrollment, error) {
	txn, err := eng.repo.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return Transaction{}, nil, errors.Wrap(err, "getting transaction")
	}

	if !canResolve(sess, txn) {
		return Transaction{}, nil, ErrPermissionDenied
	}
	if txn.IsResolved() {
		return Transaction{}, nil, errors.Wrapf(ErrAlreadyResolved, "transaction is %s", txn.Status)
	}

	var enr *enrollment.Enrollment
	if txn.EnrollmentID != "" {
		e, err := eng.enrollments.GetEnrollmentByID(ctx, txn.EnrollmentID)
		if err != nil {
			return Transaction{}, nil, errors.Wrap(err, "getting enrollment")
		}
		enr = &e
	}
	return txn, enr, nil
}

func canResolve(sess session.Session, txn Transaction) bool {
	if sess.IsUnscopedOwner() {
		return true
	}
	if sess.Role == account.RoleSchoolAdmin {
		return txn.SchoolID != "" && txn.SchoolID == sess.SchoolID
	}
	return false
}

// applyPayment credits a confirmed amount onto the enrollment: the paid
// amount is clamped at the total fee (overpayment is capped, never exceeds
// it) and the canonical status is recomputed from the new ledger facts, which
// supersede any stale upstream token.
func applyPayment(enr *enrollment.Enrollment, amount float64) {
	newPaid := enr.PaidAmount + amount
	if newPaid > enr.TotalFee {
		newPaid = enr.TotalFee
	}
	enr.PaidAmount = newPaid
	enr.Status = enrollment.Normalize("", enr.RemainingBalance(), enr.PaidAmount)
	enr.RawStatus = string(enr.Status)
	if enr.Status == enrollment.StatusCompleted {
		enr.NextInstallmentAmount = 0
	}
	enr.UpdatedAt = time.Now().UTC()
}

func (eng *Engine) notify(ctx context.Context, accountID, title, message, severity string) {
	if eng.notifSvc == nil {
		return
	}
	if _, err := eng.notifSvc.Notify(ctx, accountID, notification.CategoryPayment, title, message, severity); err != nil && eng.logger != nil {
		eng.logger.Error(fmt.Sprintf("notifying payer: %v", err), err)
	}
}
