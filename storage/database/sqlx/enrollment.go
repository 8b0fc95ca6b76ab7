package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/enrollment"
)

type enrollmentRow struct {
	ID                    string       `db:"id"`
	OwnerID               string       `db:"owner_id"`
	SchoolID              string       `db:"school_id"`
	ChildName             string       `db:"child_name"`
	SchoolName            string       `db:"school_name"`
	Grade                 string       `db:"grade"`
	TotalFee              float64      `db:"total_fee"`
	PaidAmount            float64      `db:"paid_amount"`
	NextInstallmentAmount float64      `db:"next_installment_amount"`
	NextDueDate           sql.NullTime `db:"next_due_date"`
	RawStatus             string       `db:"raw_status"`
	Status                string       `db:"status"`
	AvatarURL             string       `db:"avatar_url"`
	CreatedAt             sql.NullTime `db:"created_at"`
	UpdatedAt             sql.NullTime `db:"updated_at"`
}

func (row enrollmentRow) toEnrollment() enrollment.Enrollment {
	enr := enrollment.Enrollment{
		ID:                    row.ID,
		OwnerID:               row.OwnerID,
		SchoolID:              row.SchoolID,
		ChildName:             row.ChildName,
		SchoolName:            row.SchoolName,
		Grade:                 row.Grade,
		TotalFee:              row.TotalFee,
		PaidAmount:            row.PaidAmount,
		NextInstallmentAmount: row.NextInstallmentAmount,
		RawStatus:             row.RawStatus,
		Status:                enrollment.Status(row.Status),
		AvatarURL:             row.AvatarURL,
	}
	if row.NextDueDate.Valid {
		enr.NextDueDate = row.NextDueDate.Time
	}
	if row.CreatedAt.Valid {
		enr.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		enr.UpdatedAt = row.UpdatedAt.Time
	}
	return enr
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

const enrollmentColumns = `id, owner_id, school_id, child_name, school_name, grade, total_fee,
paid_amount, next_installment_amount, next_due_date, raw_status, status, avatar_url, created_at, updated_at`

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO enrollment (`+enrollmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		enr.ID, enr.OwnerID, enr.SchoolID, enr.ChildName, enr.SchoolName, enr.Grade, enr.TotalFee,
		enr.PaidAmount, enr.NextInstallmentAmount, nullTime(enr.NextDueDate), enr.RawStatus,
		string(enr.Status), enr.AvatarURL, enr.CreatedAt, enr.UpdatedAt,
	)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) QueryAllEnrollments(ctx context.Context) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+enrollmentColumns+` FROM enrollment ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.toEnrollment())
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+enrollmentColumns+` FROM enrollment WHERE id = $1`, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE enrollment SET paid_amount = $2, next_installment_amount = $3, next_due_date = $4,
			raw_status = $5, status = $6, avatar_url = $7, updated_at = $8
		WHERE id = $1`,
		enr.ID, enr.PaidAmount, enr.NextInstallmentAmount, nullTime(enr.NextDueDate),
		enr.RawStatus, string(enr.Status), enr.AvatarURL, enr.UpdatedAt,
	)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollmentCascade(ctx context.Context, id string) error {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM enrollment WHERE id = $1)`, id); err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !exists {
		return enrollment.ErrNotFound
	}

	// transactions → enrollment
	steps := []struct {
		step string
		stmt string
	}{
		{"deleting transactions", `DELETE FROM transaction WHERE enrollment_id = $1`},
		{"deleting enrollment", `DELETE FROM enrollment WHERE id = $1`},
	}
	return inTx(ctx, repo.db, func(tx core.DBTransactor) error {
		for _, s := range steps {
			if _, err := tx.ExecContext(ctx, s.stmt, id); err != nil {
				return &core.PartialCascadeError{Entity: "enrollment", ID: id, Step: s.step, Err: err}
			}
		}
		return nil
	})
}
