// Package inmemdb provides mutex-guarded in-memory repositories for tests
// and local development. One lock covers every table so coordinated commits
// (transaction + enrollment) stay atomic.
package inmemdb

import (
	"sync"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/school"
)

type DB struct {
	mutex sync.RWMutex

	accounts      map[string]*account.Account
	schools       map[string]*school.School
	enrollments   map[string]*enrollment.Enrollment
	transactions  map[string]*ledger.Transaction
	notifications map[string]*notification.Notification
}

func NewDB() *DB {
	return &DB{
		accounts:      make(map[string]*account.Account),
		schools:       make(map[string]*school.School),
		enrollments:   make(map[string]*enrollment.Enrollment),
		transactions:  make(map[string]*ledger.Transaction),
		notifications: make(map[string]*notification.Notification),
	}
}
