package inmemdb

import (
	"context"

	"github.com/trezcool/lopay/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schools = append(schools, *sch)
	}
	return schools, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[sch.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) DeleteSchoolCascade(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrNotFound
	}

	// transactions → enrollments → school
	for txID, txn := range repo.db.transactions {
		if txn.SchoolID == id {
			delete(repo.db.transactions, txID)
		}
	}
	for enrID, enr := range repo.db.enrollments {
		if enr.SchoolID == id {
			delete(repo.db.enrollments, enrID)
		}
	}
	delete(repo.db.schools, id)
	return nil
}
