package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/billing"
	"github.com/trezcool/lopay/core/school"
)

var ErrNotFound = errors.New("enrollment not found")

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		QueryAllEnrollments(ctx context.Context) ([]Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		// DeleteEnrollmentCascade deletes the enrollment's transactions before
		// the enrollment itself.
		DeleteEnrollmentCascade(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		schools *school.Service
		conf    *core.Config
	}
)

func NewService(repo Repository, schools *school.Service, conf *core.Config) *Service {
	return &Service{repo: repo, schools: schools, conf: conf}
}

// Create enrolls a child with the fee locked to the school's published
// schedule; an unpublished grade is rejected with school.ErrFeeNotPublished.
func (svc *Service) Create(ctx context.Context, ownerID string, ne NewEnrollment) (Enrollment, error) {
	sch, err := svc.schools.GetByID(ctx, ne.SchoolID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "getting school")
	}
	totalFee, err := svc.schools.FeeFor(ctx, ne.SchoolID, ne.Grade)
	if err != nil {
		return Enrollment{}, err
	}

	quote, err := billing.QuotePlan(totalFee, ne.FeeType, svc.conf.Billing)
	if err != nil {
		return Enrollment{}, err
	}
	var plan billing.PlanOption
	for _, opt := range quote.Plans {
		if opt.Type == ne.PlanType {
			plan = opt
			break
		}
	}

	now := time.Now().UTC()
	enr := Enrollment{
		ID:                    uuid.New().String(),
		OwnerID:               ownerID,
		SchoolID:              sch.ID,
		ChildName:             ne.ChildName,
		SchoolName:            sch.Name,
		Grade:                 ne.Grade,
		TotalFee:              totalFee,
		NextInstallmentAmount: plan.Amount,
		NextDueDate:           nextDueDate(now, plan.Type),
		Status:                StatusPending,
		AvatarURL:             ne.AvatarURL,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Enrollment, error) {
	return svc.repo.QueryAllEnrollments(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(ctx, id)
}

// Defaulters returns the enrollments currently in Defaulted state.
func (svc *Service) Defaulters(ctx context.Context) ([]Enrollment, error) {
	all, err := svc.repo.QueryAllEnrollments(ctx)
	if err != nil {
		return nil, err
	}
	defaulters := make([]Enrollment, 0)
	for _, enr := range all {
		if Normalize(enr.RawStatus, enr.RemainingBalance(), enr.PaidAmount) == StatusDefaulted {
			defaulters = append(defaulters, enr)
		}
	}
	return defaulters, nil
}

// SchoolStats summarizes collection state across a school's enrollments.
func (svc *Service) SchoolStats(ctx context.Context, schoolID string) (Stats, error) {
	all, err := svc.repo.QueryAllEnrollments(ctx)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, enr := range all {
		if enr.SchoolID != schoolID {
			continue
		}
		stats.EnrollmentCount++
		stats.ExpectedTotal += enr.TotalFee
		stats.CollectedTotal += enr.PaidAmount
		stats.OutstandingTotal += enr.RemainingBalance()
	}
	return stats, nil
}

// Delete removes the enrollment and its transactions.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEnrollmentCascade(ctx, id)
}

func nextDueDate(from time.Time, planType string) time.Time {
	if planType == billing.PlanWeekly {
		return from.AddDate(0, 0, 7)
	}
	return from.AddDate(0, 1, 0)
}
