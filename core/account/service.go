package account

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
)

var (
	ErrNotFound    = errors.New("account not found")
	ErrEmailExists = errors.New("an account with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Account) error
		CreateAccount(ctx context.Context, acct Account) (Account, error)
		QueryAllAccounts(ctx context.Context) ([]Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		UpdateAccount(ctx context.Context, acct Account, isActive *bool) (Account, error)
		// DeleteAccountCascade deletes the account's transactions, enrollments
		// and notifications before the account itself, as one unit where the
		// backing store allows it.
		DeleteAccountCascade(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		CheckUniqueness(email string, excluded ...Account) error
		Create(ctx context.Context, na NewAccount) (Account, error)
		QueryAll(ctx context.Context) ([]Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
		Update(ctx context.Context, id string, ua UpdateAccount) (Account, error)
		SetLastLogin(ctx context.Context, acct Account) (Account, error)
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) CheckUniqueness(email string, excluded ...Account) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, excluded...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	acct := Account{
		ID:                uuid.New().String(),
		Name:              na.Name,
		Email:             na.Email,
		PhoneNumber:       na.PhoneNumber,
		Role:              na.Role,
		SchoolID:          na.SchoolID,
		BankName:          na.BankName,
		BankAccountName:   na.BankAccountName,
		BankAccountNumber: na.BankAccountNumber,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := acct.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "setting password")
	}

	acct, err := svc.repo.CreateAccount(ctx, acct)
	if err != nil {
		return Account{}, err
	}
	svc.sendWelcomeEmail(acct)
	return acct, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAllAccounts(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	acct := Account{
		ID:                id,
		Name:              ua.Name,
		PhoneNumber:       ua.PhoneNumber,
		BankName:          ua.BankName,
		BankAccountName:   ua.BankAccountName,
		BankAccountNumber: ua.BankAccountNumber,
		UpdatedAt:         time.Now().UTC(),
	}
	if ua.Password != "" {
		if err := acct.SetPassword(ua.Password); err != nil {
			return Account{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateAccount(ctx, acct, ua.IsActive)
}

func (svc *Service) SetLastLogin(ctx context.Context, acct Account) (Account, error) {
	acct.LastLogin = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acct, nil)
}

// Delete removes the account and everything it owns. A *core.PartialCascadeError
// means dependent records may remain; callers should re-query to confirm.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAccountCascade(ctx, id)
}

func (svc *Service) sendWelcomeEmail(acct Account) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: acct.Name, Address: acct.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour %s account is ready. "+
				"You can now fund tuition in flexible installments.\n", acct.Name, svc.conf.AppName),
	})
}
