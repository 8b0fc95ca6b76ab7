package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
)

var (
	_ core.DB           = (*sqlx.DB)(nil)
	_ core.DBTransactor = (*sql.Tx)(nil)
)

// inTx runs fn inside a database transaction. The transaction is rolled back
// unless both fn and the commit succeed.
func inTx(ctx context.Context, db core.DB, fn func(tx core.DBTransactor) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
