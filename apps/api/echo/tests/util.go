package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/lopay/apps/api/echo"
	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/school"
	emailsvc "github.com/trezcool/lopay/services/email"
	logsvc "github.com/trezcool/lopay/services/logger"
	inmemdb "github.com/trezcool/lopay/storage/database/inmem"
)

var (
	acctRepo   account.Repository
	schoolRepo school.Repository
	enrRepo    enrollment.Repository
	txnRepo    ledger.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func testConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		AppName:   "Lopay",
		SecretKey: "s3cr3t-t3st-k3y",
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: time.Hour,
		},
		Billing: core.BillingConfig{
			DepositFraction:     .25,
			PlatformFeeFraction: .025,
		},
	}
}

func setup(t *testing.T) Server {
	t.Helper()
	conf := testConfig()

	// set up DB & repos
	db := inmemdb.NewDB()
	acctRepo = inmemdb.NewAccountRepository(db)
	schoolRepo = inmemdb.NewSchoolRepository(db)
	enrRepo = inmemdb.NewEnrollmentRepository(db)
	txnRepo = inmemdb.NewTransactionRepository(db)
	notifRepo := inmemdb.NewNotificationRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "TEST : ", log.LstdFlags|log.Lshortfile),
		conf,
	)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	accountSvc := account.NewService(acctRepo, mailSvc, conf)
	schoolSvc := school.NewService(schoolRepo)
	enrollmentSvc := enrollment.NewService(enrRepo, schoolSvc, conf)
	notifSvc := notification.NewService(notifRepo, acctRepo, mailSvc, conf)
	ledgerEng := ledger.NewEngine(txnRepo, enrRepo, notifSvc, logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:          conf,
			Logger:        logger,
			AccountSvc:    accountSvc,
			SchoolSvc:     schoolSvc,
			EnrollmentSvc: enrollmentSvc,
			LedgerEng:     ledgerEng,
			NotifSvc:      notifSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// logIn obtains a token through the login endpoint; sessions stay stateless so
// this is all a test needs to act as the account.
func logIn(t *testing.T, app Server, email, pwd string) string {
	t.Helper()
	req, rec := newRequest(http.MethodPost, "/v1/accounts/login", marshallObj(t, LoginRequest{Email: email, Password: pwd}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logIn(%s) failed: code = %v; body = %s", email, rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("logIn(%s) failed: %v", email, err)
	}
	return resp.Token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
