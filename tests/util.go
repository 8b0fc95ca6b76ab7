package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/school"
)

func CreateAccount(
	t *testing.T,
	repo account.Repository,
	name, email, pwd, role, schoolID string,
	isActive bool,
) account.Account {
	t.Helper()
	tstamp := time.Now().UTC()
	acct := account.Account{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Role:      role,
		SchoolID:  schoolID,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := acct.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acct, err := repo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acct
}

func CreateSchool(
	t *testing.T,
	repo school.Repository,
	name string,
	feeSchedule map[string]float64,
) school.School {
	t.Helper()
	tstamp := time.Now().UTC()
	sch, err := repo.CreateSchool(context.Background(), school.School{
		ID:          uuid.New().String(),
		Name:        name,
		FeeSchedule: feeSchedule,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateEnrollment(
	t *testing.T,
	repo enrollment.Repository,
	ownerID, schoolID, childName string,
	totalFee, paidAmount float64,
	status enrollment.Status,
) enrollment.Enrollment {
	t.Helper()
	tstamp := time.Now().UTC()
	enr, err := repo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		SchoolID:   schoolID,
		ChildName:  childName,
		TotalFee:   totalFee,
		PaidAmount: paidAmount,
		Status:     status,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreatePendingTransaction(
	t *testing.T,
	repo ledger.Repository,
	payerID string,
	enr enrollment.Enrollment,
	amount float64,
) ledger.Transaction {
	t.Helper()
	txn, err := repo.CreateTransaction(context.Background(), ledger.Transaction{
		ID:           uuid.New().String(),
		PayerID:      payerID,
		EnrollmentID: enr.ID,
		SchoolID:     enr.SchoolID,
		ChildName:    enr.ChildName,
		SchoolName:   enr.SchoolName,
		Amount:       amount,
		Status:       ledger.TxPending,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreatePendingTransaction() failed: %v", err)
	}
	return txn
}
