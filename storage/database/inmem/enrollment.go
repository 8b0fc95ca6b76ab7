package inmemdb

import (
	"context"

	"github.com/trezcool/lopay/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) QueryAllEnrollments(ctx context.Context) ([]enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0, len(repo.db.enrollments))
	for _, enr := range repo.db.enrollments {
		enrollments = append(enrollments, *enr)
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.enrollments[enr.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollmentCascade(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.enrollments[id]; !ok {
		return enrollment.ErrNotFound
	}

	// transactions → enrollment
	for txID, txn := range repo.db.transactions {
		if txn.EnrollmentID == id {
			delete(repo.db.transactions, txID)
		}
	}
	delete(repo.db.enrollments, id)
	return nil
}
