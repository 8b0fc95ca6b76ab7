package school_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/school"
	inmemdb "github.com/trezcool/lopay/storage/database/inmem"
	testutil "github.com/trezcool/lopay/tests"
)

func setup(t *testing.T) (*school.Service, school.Repository) {
	t.Helper()
	db := inmemdb.NewDB()
	repo := inmemdb.NewSchoolRepository(db)
	return school.NewService(repo), repo
}

func TestServiceFeeFor(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	sch := testutil.CreateSchool(t, repo, "Unity High", map[string]float64{
		"Grade 1": 120000,
		"Grade 2": 0, // published but unpriced
	})

	tests := []struct {
		name     string
		schoolID string
		grade    string
		wantFee  float64
		wantErr  error
	}{
		{name: "published fee", schoolID: sch.ID, grade: "Grade 1", wantFee: 120000},
		{name: "unpublished grade", schoolID: sch.ID, grade: "Grade 9", wantErr: school.ErrFeeNotPublished},
		{name: "zero fee counts as unpublished", schoolID: sch.ID, grade: "Grade 2", wantErr: school.ErrFeeNotPublished},
		{name: "unknown school", schoolID: "nope", grade: "Grade 1", wantErr: school.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := svc.FeeFor(ctx, tt.schoolID, tt.grade)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Fatalf("FeeFor() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FeeFor() failed: %v", err)
			}
			if fee != tt.wantFee {
				t.Errorf("FeeFor() = %v, want %v", fee, tt.wantFee)
			}
		})
	}
}

func TestServicePublishFee(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	sch := testutil.CreateSchool(t, repo, "Unity High", nil)

	if _, err := svc.FeeFor(ctx, sch.ID, "Grade 5"); errors.Cause(err) != school.ErrFeeNotPublished {
		t.Fatalf("FeeFor() before publish error = %v, want ErrFeeNotPublished", err)
	}

	if _, err := svc.PublishFee(ctx, sch.ID, school.UpsertFee{Grade: "Grade 5", Amount: 85000}); err != nil {
		t.Fatalf("PublishFee() failed: %v", err)
	}
	fee, err := svc.FeeFor(ctx, sch.ID, "Grade 5")
	if err != nil {
		t.Fatalf("FeeFor() after publish failed: %v", err)
	}
	if fee != 85000 {
		t.Errorf("FeeFor() = %v, want 85000", fee)
	}

	// publishing again overwrites
	if _, err := svc.PublishFee(ctx, sch.ID, school.UpsertFee{Grade: "Grade 5", Amount: 90000}); err != nil {
		t.Fatalf("PublishFee() failed: %v", err)
	}
	if fee, _ := svc.FeeFor(ctx, sch.ID, "Grade 5"); fee != 90000 {
		t.Errorf("FeeFor() = %v, want 90000", fee)
	}
}

// stuckCascadeRepo fails mid-cascade the way a storage backend would when a
// dependent delete errors out.
type stuckCascadeRepo struct {
	school.Repository
}

func (repo stuckCascadeRepo) DeleteSchoolCascade(ctx context.Context, id string) error {
	err := core.NewPartialCascadeError("school", id, "deleting enrollments", errors.New("connection reset"))
	return errors.Wrap(err, "deleting school")
}

func TestServiceDeleteCascadePartialFailure(t *testing.T) {
	_, repo := setup(t)
	ctx := context.Background()

	sch := testutil.CreateSchool(t, repo, "Unity High", nil)
	svc := school.NewService(stuckCascadeRepo{Repository: repo})

	err := svc.Delete(ctx, sch.ID)
	if err == nil {
		t.Fatal("Delete() error = nil, want *core.PartialCascadeError")
	}

	// the cascade context survives wrapping so callers can report what remains
	cascadeErr, ok := errors.Cause(err).(*core.PartialCascadeError)
	if !ok {
		t.Fatalf("Delete() error cause = %T, want *core.PartialCascadeError", errors.Cause(err))
	}
	if cascadeErr.Entity != "school" || cascadeErr.Step != "deleting enrollments" {
		t.Errorf("cascade error = (%s, %s), want (school, deleting enrollments)", cascadeErr.Entity, cascadeErr.Step)
	}
	if cascadeErr.ID != sch.ID {
		t.Errorf("cascade error ID = %s, want %s", cascadeErr.ID, sch.ID)
	}
}
