package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
)

var ErrNotFound = errors.New("notification not found")

type (
	Repository interface {
		CreateNotification(ctx context.Context, notif Notification) (Notification, error)
		QueryAllNotifications(ctx context.Context) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		MarkNotificationRead(ctx context.Context, id string) (Notification, error)
	}

	Service struct {
		repo     Repository
		accounts account.Repository
		mailSvc  core.EmailService
		conf     *core.Config
	}
)

func NewService(repo Repository, accounts account.Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, accounts: accounts, mailSvc: mailSvc, conf: conf}
}

// Notify records an in-app notification for one account and fans it out to
// email when the account resolves.
func (svc *Service) Notify(ctx context.Context, accountID, category, title, message, severity string) (Notification, error) {
	notif := Notification{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Category:  category,
		Title:     title,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}
	notif, err := svc.repo.CreateNotification(ctx, notif)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}

	if svc.mailSvc != nil {
		if acct, err := svc.accounts.GetAccountByID(ctx, accountID); err == nil {
			svc.mailSvc.SendMessages(&core.EmailMessage{
				To:      []mail.Address{{Name: acct.Name, Address: acct.Email}},
				Subject: title,
				BodyStr: message,
			})
		}
	}
	return notif, nil
}

// Broadcast records an announcement visible to every account and fans it out
// to every active account's email.
func (svc *Service) Broadcast(ctx context.Context, title, message string) (Notification, error) {
	notif := Notification{
		ID:        uuid.New().String(),
		Category:  CategoryAnnouncement,
		Title:     title,
		Message:   message,
		Severity:  SeverityInfo,
		CreatedAt: time.Now().UTC(),
	}
	notif, err := svc.repo.CreateNotification(ctx, notif)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}

	if svc.mailSvc != nil {
		if accts, err := svc.accounts.QueryAllAccounts(ctx); err == nil {
			msgs := make([]*core.EmailMessage, 0, len(accts))
			for _, acct := range accts {
				if !acct.IsActive {
					continue
				}
				msgs = append(msgs, &core.EmailMessage{
					To:      []mail.Address{{Name: acct.Name, Address: acct.Email}},
					Subject: title,
					BodyStr: message,
				})
			}
			svc.mailSvc.SendMessages(msgs...)
		}
	}
	return notif, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Notification, error) {
	return svc.repo.QueryAllNotifications(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Notification, error) {
	return svc.repo.GetNotificationByID(ctx, id)
}

func (svc *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	return svc.repo.MarkNotificationRead(ctx, id)
}
