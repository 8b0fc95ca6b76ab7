package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
)

// addOwner creates the platform owner account, or resets an existing account
// with that email to an active owner.
func (cli *commandLine) addOwner(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	acct, err := cli.accountRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if err != account.ErrNotFound {
			return err
		}
		acct = account.Account{
			ID:        uuid.New().String(),
			Name:      name,
			Email:     email,
			Role:      account.RoleOwner,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := acct.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.accountRepo.CreateAccount(ctx, acct)
		return err
	}

	acct.Name = name
	acct.Role = account.RoleOwner
	acct.UpdatedAt = now
	if err := acct.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.accountRepo.UpdateAccount(ctx, acct, &isActive)
	return err
}
