package inmemdb

import (
	"context"

	"github.com/trezcool/lopay/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...account.Account) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.db.accounts {
		if acct.Email == email && !isExcludedAccount(*acct, excluded) {
			return account.ErrEmailExists
		}
	}
	return nil
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.accounts[acct.ID] = &acct
	return acct, nil
}

func (repo *accountRepository) QueryAllAccounts(ctx context.Context) ([]account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	accounts := make([]account.Account, 0, len(repo.db.accounts))
	for _, acct := range repo.db.accounts {
		accounts = append(accounts, *acct)
	}
	return accounts, nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if acct, ok := repo.db.accounts[id]; ok {
		return *acct, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, acct := range repo.db.accounts {
		if acct.Email == email {
			return *acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct account.Account, isActive *bool) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.accounts[acct.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	if acct.Name != "" {
		orig.Name = acct.Name
	}
	if acct.PhoneNumber != "" {
		orig.PhoneNumber = acct.PhoneNumber
	}
	if acct.Role != "" {
		orig.Role = acct.Role
	}
	if acct.BankName != "" {
		orig.BankName = acct.BankName
	}
	if acct.BankAccountName != "" {
		orig.BankAccountName = acct.BankAccountName
	}
	if acct.BankAccountNumber != "" {
		orig.BankAccountNumber = acct.BankAccountNumber
	}
	if acct.PasswordHash != nil {
		orig.PasswordHash = acct.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if !acct.LastLogin.IsZero() {
		orig.LastLogin = acct.LastLogin
	}
	if !acct.UpdatedAt.IsZero() {
		orig.UpdatedAt = acct.UpdatedAt
	}
	return *orig, nil
}

func (repo *accountRepository) DeleteAccountCascade(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.accounts[id]; !ok {
		return account.ErrNotFound
	}

	// transactions → enrollments → notifications → account
	for txID, txn := range repo.db.transactions {
		if txn.PayerID == id {
			delete(repo.db.transactions, txID)
		}
	}
	for enrID, enr := range repo.db.enrollments {
		if enr.OwnerID == id {
			delete(repo.db.enrollments, enrID)
		}
	}
	for notifID, notif := range repo.db.notifications {
		if notif.AccountID == id {
			delete(repo.db.notifications, notifID)
		}
	}
	delete(repo.db.accounts, id)
	return nil
}

func isExcludedAccount(acct account.Account, excluded []account.Account) bool {
	for _, ex := range excluded {
		if ex.ID == acct.ID {
			return true
		}
	}
	return false
}
