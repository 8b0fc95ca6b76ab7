package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core/notification"
)

type notificationRow struct {
	ID        string         `db:"id"`
	AccountID sql.NullString `db:"account_id"`
	Category  string         `db:"category"`
	Title     string         `db:"title"`
	Message   string         `db:"message"`
	Severity  string         `db:"severity"`
	Read      bool           `db:"read"`
	CreatedAt sql.NullTime   `db:"created_at"`
}

func (row notificationRow) toNotification() notification.Notification {
	notif := notification.Notification{
		ID:       row.ID,
		Category: row.Category,
		Title:    row.Title,
		Message:  row.Message,
		Severity: row.Severity,
		Read:     row.Read,
	}
	if row.AccountID.Valid {
		notif.AccountID = row.AccountID.String
	}
	if row.CreatedAt.Valid {
		notif.CreatedAt = row.CreatedAt.Time
	}
	return notif
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, account_id, category, title, message, severity, read, created_at`

func (repo *notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO notification (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		notif.ID, nullString(notif.AccountID), notif.Category, notif.Title,
		notif.Message, notif.Severity, notif.Read, notif.CreatedAt,
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return notif, nil
}

func (repo *notificationRepository) QueryAllNotifications(ctx context.Context) ([]notification.Notification, error) {
	var rows []notificationRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+notificationColumns+` FROM notification ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}

	notifications := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, row.toNotification())
	}
	return notifications, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+notificationColumns+` FROM notification WHERE id = $1`, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.toNotification(), nil
}

func (repo *notificationRepository) MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE notification SET read = TRUE WHERE id = $1 RETURNING `+notificationColumns, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "marking notification read")
	}
	return row.toNotification(), nil
}
