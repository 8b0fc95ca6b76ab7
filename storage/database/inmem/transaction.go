package inmemdb

import (
	"context"

	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
)

type transactionRepository struct {
	db *DB
}

var _ ledger.Repository = (*transactionRepository)(nil)

func NewTransactionRepository(db *DB) *transactionRepository {
	return &transactionRepository{db: db}
}

func (repo *transactionRepository) CreateTransaction(ctx context.Context, txn ledger.Transaction) (ledger.Transaction, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.transactions[txn.ID] = &txn
	return txn, nil
}

func (repo *transactionRepository) QueryAllTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	transactions := make([]ledger.Transaction, 0, len(repo.db.transactions))
	for _, txn := range repo.db.transactions {
		transactions = append(transactions, *txn)
	}
	return transactions, nil
}

func (repo *transactionRepository) GetTransactionByID(ctx context.Context, id string) (ledger.Transaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if txn, ok := repo.db.transactions[id]; ok {
		return *txn, nil
	}
	return ledger.Transaction{}, ledger.ErrNotFound
}

// CommitResolution writes the resolved transaction and the enrollment update
// under one lock; readers never see one without the other.
func (repo *transactionRepository) CommitResolution(ctx context.Context, txn ledger.Transaction, enr *enrollment.Enrollment) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.transactions[txn.ID]; !ok {
		return ledger.ErrNotFound
	}
	if enr != nil {
		if _, ok := repo.db.enrollments[enr.ID]; !ok {
			return enrollment.ErrNotFound
		}
	}

	repo.db.transactions[txn.ID] = &txn
	if enr != nil {
		e := *enr
		repo.db.enrollments[e.ID] = &e
	}
	return nil
}

func (repo *transactionRepository) CommitDirectPayment(ctx context.Context, txn ledger.Transaction, enr enrollment.Enrollment) (ledger.Transaction, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.enrollments[enr.ID]; !ok {
		return ledger.Transaction{}, enrollment.ErrNotFound
	}

	repo.db.transactions[txn.ID] = &txn
	repo.db.enrollments[enr.ID] = &enr
	return txn, nil
}
