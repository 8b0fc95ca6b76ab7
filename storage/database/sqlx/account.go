package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
)

type accountRow struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	Email             string         `db:"email"`
	PhoneNumber       string         `db:"phone_number"`
	Role              string         `db:"role"`
	SchoolID          sql.NullString `db:"school_id"`
	BankName          string         `db:"bank_name"`
	BankAccountName   string         `db:"bank_account_name"`
	BankAccountNumber string         `db:"bank_account_number"`
	IsActive          bool           `db:"is_active"`
	PasswordHash      []byte         `db:"password_hash"`
	CreatedAt         sql.NullTime   `db:"created_at"`
	UpdatedAt         sql.NullTime   `db:"updated_at"`
	LastLogin         sql.NullTime   `db:"last_login"`
}

func (row accountRow) toAccount() account.Account {
	acct := account.Account{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email,
		PhoneNumber:       row.PhoneNumber,
		Role:              row.Role,
		BankName:          row.BankName,
		BankAccountName:   row.BankAccountName,
		BankAccountNumber: row.BankAccountNumber,
		IsActive:          row.IsActive,
		PasswordHash:      row.PasswordHash,
	}
	if row.SchoolID.Valid {
		acct.SchoolID = row.SchoolID.String
	}
	if row.CreatedAt.Valid {
		acct.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		acct.UpdatedAt = row.UpdatedAt.Time
	}
	if row.LastLogin.Valid {
		acct.LastLogin = row.LastLogin.Time
	}
	return acct
}

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, name, email, phone_number, role, school_id, bank_name,
bank_account_name, bank_account_number, is_active, password_hash, created_at, updated_at, last_login`

func (repo *accountRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...account.Account) error {
	excludedIDs := make([]string, 0, len(excluded))
	for _, acct := range excluded {
		excludedIDs = append(excludedIDs, acct.ID)
	}

	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM account WHERE email = $1 AND id <> ALL($2))`,
		email, pq.Array(excludedIDs),
	)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return account.ErrEmailExists
	}
	return nil
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO account (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		acct.ID, acct.Name, acct.Email, acct.PhoneNumber, acct.Role, nullString(acct.SchoolID),
		acct.BankName, acct.BankAccountName, acct.BankAccountNumber, acct.IsActive,
		acct.PasswordHash, acct.CreatedAt, acct.UpdatedAt, nullTime(acct.LastLogin),
	)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return acct, nil
}

func (repo *accountRepository) QueryAllAccounts(ctx context.Context) ([]account.Account, error) {
	var rows []accountRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+accountColumns+` FROM account ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}

	accounts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.toAccount())
	}
	return accounts, nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	var row accountRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+accountColumns+` FROM account WHERE id = $1`, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "getting account")
	}
	return row.toAccount(), nil
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var row accountRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+accountColumns+` FROM account WHERE email = $1`, email)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "getting account")
	}
	return row.toAccount(), nil
}

// UpdateAccount only saves set fields; empty strings and nil pointers keep the
// stored values.
func (repo *accountRepository) UpdateAccount(ctx context.Context, acct account.Account, isActive *bool) (account.Account, error) {
	var active sql.NullBool
	if isActive != nil {
		active = sql.NullBool{Bool: *isActive, Valid: true}
	}

	var row accountRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE account SET
			name = COALESCE(NULLIF($2, ''), name),
			phone_number = COALESCE(NULLIF($3, ''), phone_number),
			role = COALESCE(NULLIF($4, ''), role),
			bank_name = COALESCE(NULLIF($5, ''), bank_name),
			bank_account_name = COALESCE(NULLIF($6, ''), bank_account_name),
			bank_account_number = COALESCE(NULLIF($7, ''), bank_account_number),
			password_hash = COALESCE($8, password_hash),
			is_active = COALESCE($9, is_active),
			last_login = COALESCE($10, last_login),
			updated_at = COALESCE($11, updated_at)
		WHERE id = $1
		RETURNING `+accountColumns,
		acct.ID, acct.Name, acct.PhoneNumber, acct.Role, acct.BankName, acct.BankAccountName,
		acct.BankAccountNumber, acct.PasswordHash, active, nullTime(acct.LastLogin), nullTime(acct.UpdatedAt),
	)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	return row.toAccount(), nil
}

func (repo *accountRepository) DeleteAccountCascade(ctx context.Context, id string) error {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM account WHERE id = $1)`, id); err != nil {
		return errors.Wrap(err, "checking account")
	}
	if !exists {
		return account.ErrNotFound
	}

	// transactions → enrollments → notifications → account
	steps := []struct {
		step string
		stmt string
	}{
		{"deleting transactions", `DELETE FROM transaction WHERE payer_id = $1`},
		{"deleting enrollments", `DELETE FROM enrollment WHERE owner_id = $1`},
		{"deleting notifications", `DELETE FROM notification WHERE account_id = $1`},
		{"deleting account", `DELETE FROM account WHERE id = $1`},
	}
	return inTx(ctx, repo.db, func(tx core.DBTransactor) error {
		for _, s := range steps {
			if _, err := tx.ExecContext(ctx, s.stmt, id); err != nil {
				return &core.PartialCascadeError{Entity: "account", ID: id, Step: s.step, Err: err}
			}
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
