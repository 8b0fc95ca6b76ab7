package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/school"
)

type demoAccount struct {
	name     string
	email    string
	password string
	role     string

	// school administrator extras; school is resolved to an ID by name
	school            string
	bankName          string
	bankAccountName   string
	bankAccountNumber string
}

var (
	demoSchools = []school.School{
		{
			Name:         "Febison Montessori Groomers School",
			Address:      "106, C.A.C Agbeye Junction, Eyita, Ikorodu, Lagos",
			ContactEmail: "info@febison.edu.ng",
			FeeSchedule: map[string]float64{
				"Basic 1": 120000,
				"Basic 2": 120000,
				"Basic 3": 125000,
				"Basic 4": 130000,
				"JSS1":    180000,
				"SS1":     220000,
			},
		},
		{
			Name:         "Westhills School",
			Address:      "Westhills avenue, Eyita, Ikorodu, Lagos",
			ContactEmail: "admin@westhills.edu.ng",
			FeeSchedule: map[string]float64{
				"Reception 1": 85000,
				"Nursery 1":   90000,
				"Basic 1":     110000,
			},
		},
		{
			Name:         "Inglewood School",
			Address:      "Oshewa street, Ori-Okuta, Ikorodu, Lagos",
			ContactEmail: "contact@inglewood.edu.ng",
			FeeSchedule: map[string]float64{
				"JSS1": 150000,
				"JSS2": 155000,
				"JSS3": 160000,
			},
		},
	}

	demoAccounts = []demoAccount{
		{name: "System Admin", email: "admin@lopay.app", password: "admin", role: account.RoleOwner},
		{name: "Demo Parent", email: "demo@lopay.app", password: "demo", role: account.RoleGuardian},
		{
			name: "Febison Bursar", email: "owner@febison.com", password: "owner", role: account.RoleSchoolAdmin,
			school: "Febison Montessori Groomers School", bankName: "Moniepoint",
			bankAccountName: "Febison Montessori School", bankAccountNumber: "9090390581",
		},
		{
			name: "Okafor Nonso", email: "bursar@westhills.edu.ng", password: "bursar", role: account.RoleSchoolAdmin,
			school: "Westhills School", bankName: "Access Bank",
			bankAccountName: "Okafor Nonso", bankAccountNumber: "1101010101",
		},
		{
			name: "Inglewood school", email: "accounts@inglewood.edu.ng", password: "finance", role: account.RoleSchoolAdmin,
			school: "Inglewood School", bankName: "UBA",
			bankAccountName: "Inglewood school", bankAccountNumber: "8130311200",
		},
	}
)

// seed loads the demo dataset: three schools with published fee schedules, the
// platform owner, a guardian and one administrator per school. Existing records
// are kept as is, so it is safe to run repeatedly.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	now := time.Now().UTC()

	schoolIDs := make(map[string]string, len(demoSchools))
	existing, err := cli.schoolRepo.QueryAllSchools(ctx)
	if err != nil {
		return err
	}
	for _, sch := range existing {
		schoolIDs[sch.Name] = sch.ID
	}

	for _, sch := range demoSchools {
		if _, ok := schoolIDs[sch.Name]; ok {
			continue
		}
		sch.ID = uuid.New().String()
		sch.CreatedAt = now
		sch.UpdatedAt = now
		if _, err := cli.schoolRepo.CreateSchool(ctx, sch); err != nil {
			return err
		}
		schoolIDs[sch.Name] = sch.ID
	}

	for _, da := range demoAccounts {
		_, err := cli.accountRepo.GetAccountByEmail(ctx, da.email)
		if err == nil {
			continue
		}
		if err != account.ErrNotFound {
			return err
		}

		acct := account.Account{
			ID:                uuid.New().String(),
			Name:              da.name,
			Email:             da.email,
			Role:              da.role,
			SchoolID:          schoolIDs[da.school],
			BankName:          da.bankName,
			BankAccountName:   da.bankAccountName,
			BankAccountNumber: da.bankAccountNumber,
			IsActive:          true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := acct.SetPassword(da.password); err != nil {
			return err
		}
		if _, err := cli.accountRepo.CreateAccount(ctx, acct); err != nil {
			return err
		}
	}
	return nil
}
