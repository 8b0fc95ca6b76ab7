package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
)

type transactionRow struct {
	ID           string         `db:"id"`
	PayerID      string         `db:"payer_id"`
	EnrollmentID sql.NullString `db:"enrollment_id"`
	SchoolID     sql.NullString `db:"school_id"`
	ChildName    string         `db:"child_name"`
	SchoolName   string         `db:"school_name"`
	Amount       float64        `db:"amount"`
	Status       string         `db:"status"`
	ReceiptURL   string         `db:"receipt_url"`
	CreatedAt    sql.NullTime   `db:"created_at"`
}

func (row transactionRow) toTransaction() ledger.Transaction {
	txn := ledger.Transaction{
		ID:         row.ID,
		PayerID:    row.PayerID,
		ChildName:  row.ChildName,
		SchoolName: row.SchoolName,
		Amount:     row.Amount,
		Status:     ledger.TxStatus(row.Status),
		ReceiptURL: row.ReceiptURL,
	}
	if row.EnrollmentID.Valid {
		txn.EnrollmentID = row.EnrollmentID.String
	}
	if row.SchoolID.Valid {
		txn.SchoolID = row.SchoolID.String
	}
	if row.CreatedAt.Valid {
		txn.CreatedAt = row.CreatedAt.Time
	}
	return txn
}

type transactionRepository struct {
	db *sqlx.DB
}

var _ ledger.Repository = (*transactionRepository)(nil)

func NewTransactionRepository(db *sqlx.DB) *transactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, payer_id, enrollment_id, school_id, child_name, school_name,
amount, status, receipt_url, created_at`

func (repo *transactionRepository) CreateTransaction(ctx context.Context, txn ledger.Transaction) (ledger.Transaction, error) {
	if err := insertTransaction(ctx, repo.db, txn); err != nil {
		return ledger.Transaction{}, err
	}
	return txn, nil
}

func (repo *transactionRepository) QueryAllTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	var rows []transactionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+transactionColumns+` FROM transaction ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}

	transactions := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, row.toTransaction())
	}
	return transactions, nil
}

func (repo *transactionRepository) GetTransactionByID(ctx context.Context, id string) (ledger.Transaction, error) {
	var row transactionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+transactionColumns+` FROM transaction WHERE id = $1`, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return ledger.Transaction{}, ledger.ErrNotFound
		}
		return ledger.Transaction{}, errors.Wrap(err, "getting transaction")
	}
	return row.toTransaction(), nil
}

// CommitResolution updates the transaction and its enrollment in one database
// transaction; neither change is visible without the other.
func (repo *transactionRepository) CommitResolution(ctx context.Context, txn ledger.Transaction, enr *enrollment.Enrollment) error {
	return inTx(ctx, repo.db, func(tx core.DBTransactor) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE transaction SET status = $2 WHERE id = $1`, txn.ID, string(txn.Status))
		if err != nil {
			return errors.Wrap(err, "updating transaction")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ledger.ErrNotFound
		}

		if enr != nil {
			return updateEnrollmentBalance(ctx, tx, *enr)
		}
		return nil
	})
}

func (repo *transactionRepository) CommitDirectPayment(ctx context.Context, txn ledger.Transaction, enr enrollment.Enrollment) (ledger.Transaction, error) {
	err := inTx(ctx, repo.db, func(tx core.DBTransactor) error {
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
		return updateEnrollmentBalance(ctx, tx, enr)
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return txn, nil
}

func insertTransaction(ctx context.Context, exec core.DBExecutor, txn ledger.Transaction) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO transaction (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		txn.ID, txn.PayerID, nullString(txn.EnrollmentID), nullString(txn.SchoolID),
		txn.ChildName, txn.SchoolName, txn.Amount, string(txn.Status), txn.ReceiptURL, txn.CreatedAt,
	)
	return errors.Wrap(err, "inserting transaction")
}

func updateEnrollmentBalance(ctx context.Context, exec core.DBExecutor, enr enrollment.Enrollment) error {
	res, err := exec.ExecContext(ctx,
		`UPDATE enrollment SET paid_amount = $2, next_installment_amount = $3, raw_status = $4,
			status = $5, updated_at = $6
		WHERE id = $1`,
		enr.ID, enr.PaidAmount, enr.NextInstallmentAmount, enr.RawStatus, string(enr.Status), enr.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}
