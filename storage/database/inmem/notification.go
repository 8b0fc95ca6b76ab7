package inmemdb

import (
	"context"

	"github.com/trezcool/lopay/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, notif notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.notifications[notif.ID] = &notif
	return notif, nil
}

func (repo *notificationRepository) QueryAllNotifications(ctx context.Context) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notifications := make([]notification.Notification, 0, len(repo.db.notifications))
	for _, notif := range repo.db.notifications {
		notifications = append(notifications, *notif)
	}
	return notifications, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if notif, ok := repo.db.notifications[id]; ok {
		return *notif, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	notif, ok := repo.db.notifications[id]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	notif.Read = true
	return *notif, nil
}
