package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/school"
)

type schoolRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Address      string         `db:"address"`
	ContactEmail string         `db:"contact_email"`
	FeeSchedule  types.JSONText `db:"fee_schedule"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}

func (row schoolRow) toSchool() (school.School, error) {
	sch := school.School{
		ID:           row.ID,
		Name:         row.Name,
		Address:      row.Address,
		ContactEmail: row.ContactEmail,
	}
	if len(row.FeeSchedule) > 0 {
		if err := json.Unmarshal(row.FeeSchedule, &sch.FeeSchedule); err != nil {
			return school.School{}, errors.Wrap(err, "decoding fee schedule")
		}
	}
	if row.CreatedAt.Valid {
		sch.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		sch.UpdatedAt = row.UpdatedAt.Time
	}
	return sch, nil
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

const schoolColumns = `id, name, address, contact_email, fee_schedule, created_at, updated_at`

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	fees, err := feeScheduleJSON(sch.FeeSchedule)
	if err != nil {
		return school.School{}, err
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO school (`+schoolColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sch.ID, sch.Name, sch.Address, sch.ContactEmail, fees, sch.CreatedAt, sch.UpdatedAt,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo *schoolRepository) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	var rows []schoolRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+schoolColumns+` FROM school ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}

	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		sch, err := row.toSchool()
		if err != nil {
			return nil, err
		}
		schools = append(schools, sch)
	}
	return schools, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var row schoolRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+schoolColumns+` FROM school WHERE id = $1`, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, errors.Wrap(err, "getting school")
	}
	return row.toSchool()
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	fees, err := feeScheduleJSON(sch.FeeSchedule)
	if err != nil {
		return school.School{}, err
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE school SET name = $2, address = $3, contact_email = $4, fee_schedule = $5, updated_at = $6
		WHERE id = $1`,
		sch.ID, sch.Name, sch.Address, sch.ContactEmail, fees, sch.UpdatedAt,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return sch, nil
}

func (repo *schoolRepository) DeleteSchoolCascade(ctx context.Context, id string) error {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM school WHERE id = $1)`, id); err != nil {
		return errors.Wrap(err, "checking school")
	}
	if !exists {
		return school.ErrNotFound
	}

	// transactions → enrollments → school
	steps := []struct {
		step string
		stmt string
	}{
		{"deleting transactions", `DELETE FROM transaction WHERE school_id = $1`},
		{"deleting enrollments", `DELETE FROM enrollment WHERE school_id = $1`},
		{"deleting school", `DELETE FROM school WHERE id = $1`},
	}
	return inTx(ctx, repo.db, func(tx core.DBTransactor) error {
		for _, s := range steps {
			if _, err := tx.ExecContext(ctx, s.stmt, id); err != nil {
				return &core.PartialCascadeError{Entity: "school", ID: id, Step: s.step, Err: err}
			}
		}
		return nil
	})
}

func feeScheduleJSON(fees map[string]float64) (types.JSONText, error) {
	if fees == nil {
		fees = map[string]float64{}
	}
	raw, err := json.Marshal(fees)
	if err != nil {
		return nil, errors.Wrap(err, "encoding fee schedule")
	}
	return types.JSONText(raw), nil
}
