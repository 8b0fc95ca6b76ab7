package database

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
)

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sqlx.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	// check if app user exists
	var exists bool
	rows, err := db.Query(fmt.Sprintf("SELECT true FROM pg_roles WHERE rolname='%s'", conf.Database.User))
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err = rows.Scan(&exists); err != nil {
			return errors.Wrap(err, "checking app user")
		}
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "checking app user")
	}

	// create app user if not exist
	if !exists {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	// check if DB exists
	var exists bool
	rows, err := db.Query(fmt.Sprintf("SELECT true FROM pg_database WHERE datname='%s'", conf.Database.Name))
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err = rows.Scan(&exists); err != nil {
			return errors.Wrap(err, "checking DB")
		}
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

func CreateIfNotExist(conf *core.Config) error {
	// connect as admin
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	if err = createAppUser(db, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}
	defer func() { _ = db.Close() }()

	// create DB as app user
	db, err = open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	if err = createDB(db, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	defer func() { _ = db.Close() }()
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS account (
		id                  UUID PRIMARY KEY,
		name                TEXT NOT NULL,
		email               TEXT NOT NULL UNIQUE,
		phone_number        TEXT NOT NULL DEFAULT '',
		role                TEXT NOT NULL,
		school_id           UUID,
		bank_name           TEXT NOT NULL DEFAULT '',
		bank_account_name   TEXT NOT NULL DEFAULT '',
		bank_account_number TEXT NOT NULL DEFAULT '',
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		password_hash       BYTEA,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL,
		last_login          TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS school (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		address       TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		fee_schedule  JSONB NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS enrollment (
		id                      UUID PRIMARY KEY,
		owner_id                UUID NOT NULL,
		school_id               UUID NOT NULL,
		child_name              TEXT NOT NULL,
		school_name             TEXT NOT NULL DEFAULT '',
		grade                   TEXT NOT NULL,
		total_fee               DOUBLE PRECISION NOT NULL,
		paid_amount             DOUBLE PRECISION NOT NULL DEFAULT 0,
		next_installment_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		next_due_date           TIMESTAMPTZ,
		raw_status              TEXT NOT NULL DEFAULT '',
		status                  TEXT NOT NULL,
		avatar_url              TEXT NOT NULL DEFAULT '',
		created_at              TIMESTAMPTZ NOT NULL,
		updated_at              TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transaction (
		id            UUID PRIMARY KEY,
		payer_id      UUID NOT NULL,
		enrollment_id UUID,
		school_id     UUID,
		child_name    TEXT NOT NULL DEFAULT '',
		school_name   TEXT NOT NULL DEFAULT '',
		amount        DOUBLE PRECISION NOT NULL,
		status        TEXT NOT NULL,
		receipt_url   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notification (
		id         UUID PRIMARY KEY,
		account_id UUID,
		category   TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL DEFAULT '',
		severity   TEXT NOT NULL,
		read       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates missing tables. Statements are idempotent so it is safe
// to run at every startup.
func EnsureSchema(db *sqlx.DB) error {
	if err := ping(db); err != nil {
		return err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "ensuring schema")
		}
	}
	return nil
}
