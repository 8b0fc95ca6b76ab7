package main

import (
	"context"
	"time"

	"github.com/trezcool/lopay/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	acct, err := cli.accountRepo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err := acct.SetPassword(pwd); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	if _, err := cli.accountRepo.UpdateAccount(ctx, acct, nil); err != nil {
		return err
	}
	return nil
}
