package main

import (
	"log"
	"os"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/storage/database"
	sqlxrepos "github.com/trezcool/lopay/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.EnsureSchema(db))

	// start CLI
	cli := commandLine{
		accountRepo: sqlxrepos.NewAccountRepository(db),
		schoolRepo:  sqlxrepos.NewSchoolRepository(db),
		notifRepo:   sqlxrepos.NewNotificationRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
