package school

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("school not found")

	// ErrFeeNotPublished is returned when a grade has no fee on the school's
	// schedule. A price is never fabricated for an unpublished grade.
	ErrFeeNotPublished = errors.New("no fee published for this grade")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		QueryAllSchools(ctx context.Context) ([]School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		// DeleteSchoolCascade deletes the school's transactions and enrollments
		// before the school itself.
		DeleteSchoolCascade(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	now := time.Now().UTC()
	sch := School{
		ID:           uuid.New().String(),
		Name:         ns.Name,
		Address:      ns.Address,
		ContactEmail: ns.ContactEmail,
		FeeSchedule:  ns.FeeSchedule,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateSchool(ctx, sch)
}

func (svc *Service) QueryAll(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSchool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	sch.Name = us.Name
	sch.Address = us.Address
	sch.ContactEmail = us.ContactEmail
	sch.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, sch)
}

// FeeFor looks a grade's fee up on the school's published schedule.
func (svc *Service) FeeFor(ctx context.Context, schoolID, grade string) (float64, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return 0, err
	}
	fee, ok := sch.FeeSchedule[grade]
	if !ok || fee <= 0 {
		return 0, ErrFeeNotPublished
	}
	return fee, nil
}

func (svc *Service) PublishFee(ctx context.Context, schoolID string, uf UpsertFee) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return School{}, err
	}
	if sch.FeeSchedule == nil {
		sch.FeeSchedule = make(map[string]float64, 1)
	}
	sch.FeeSchedule[uf.Grade] = uf.Amount
	sch.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, sch)
}

// Delete removes the school and everything tied to it. A *core.PartialCascadeError
// means dependent records may remain; callers should re-query to confirm.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteSchoolCascade(ctx, id)
}
