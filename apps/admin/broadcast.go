package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/notification"
)

func (cli *commandLine) broadcast(title, message string) error {
	_, err := cli.notifRepo.CreateNotification(context.Background(), notification.Notification{
		ID:        uuid.New().String(),
		Category:  notification.CategoryAnnouncement,
		Title:     core.CleanString(title),
		Message:   core.CleanString(message),
		Severity:  notification.SeverityInfo,
		CreatedAt: time.Now().UTC(),
	})
	return err
}
