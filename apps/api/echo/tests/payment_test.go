package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/lopay/apps/api/echo"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	testutil "github.com/trezcool/lopay/tests"
)

func Test_paymentApi_submitAndApprove(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schoolRepo, "Unity High", map[string]float64{"Grade 1": 120000})
	otherSch := testutil.CreateSchool(t, schoolRepo, "Hope Academy", nil)

	guardian := testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)
	testutil.CreateAccount(t, acctRepo, "Admin", "admin@test.cd", "mdr", account.RoleSchoolAdmin, sch.ID, true)
	testutil.CreateAccount(t, acctRepo, "Rival", "rival@test.cd", "mdr", account.RoleSchoolAdmin, otherSch.ID, true)

	enr := testutil.CreateEnrollment(t, enrRepo, guardian.ID, sch.ID, "Amina", 120000, 0, enrollment.StatusPending)

	guardianToken := logIn(t, app, "guardian@test.cd", "mdr")
	adminToken := logIn(t, app, "admin@test.cd", "mdr")
	rivalToken := logIn(t, app, "rival@test.cd", "mdr")

	// submit
	body := marshallObj(t, SubmitPaymentRequest{EnrollmentID: enr.ID, Amount: 33000, ReceiptURL: "https://receipts/1.png"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments", guardianToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var txn ledger.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txn))
	assert.Equal(t, ledger.TxPending, txn.Status)
	assert.Equal(t, guardian.ID, txn.PayerID)

	// the payer may not verify their own payment
	t.Run("guardian cannot approve", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodPut, "/v1/payments/"+txn.ID+"/approve", guardianToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("foreign school admin cannot approve", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: ledger.ErrPermissionDenied.Error()})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/payments/"+txn.ID+"/approve", rivalToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("pending backlog", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/payments/pending", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var pending []ledger.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
		require.Len(t, pending, 1)
		assert.Equal(t, txn.ID, pending[0].ID)
	})

	t.Run("school admin approves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/payments/"+txn.ID+"/approve", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var approved ledger.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
		assert.Equal(t, ledger.TxSuccessful, approved.Status)

		// the enrollment was credited in the same unit
		refreshed, err := enrRepo.GetEnrollmentByID(context.Background(), enr.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(33000), refreshed.PaidAmount)
		assert.Equal(t, enrollment.StatusActive, refreshed.Status)
	})

	t.Run("second approval conflicts", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusConflict, wantData: marshallObj(t, httpErr{Error: ledger.ErrAlreadyResolved.Error()})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/payments/"+txn.ID+"/approve", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_paymentApi_directPay(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schoolRepo, "Unity High", map[string]float64{"Grade 1": 120000})
	guardian := testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)
	enr := testutil.CreateEnrollment(t, enrRepo, guardian.ID, sch.ID, "Amina", 120000, 0, enrollment.StatusPending)

	token := logIn(t, app, "guardian@test.cd", "mdr")

	body := marshallObj(t, DirectPaymentRequest{EnrollmentID: enr.ID, Amount: 120000})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments/direct", token, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var txn ledger.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txn))
	assert.Equal(t, ledger.TxSuccessful, txn.Status)

	refreshed, err := enrRepo.GetEnrollmentByID(context.Background(), enr.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusCompleted, refreshed.Status)
	assert.Equal(t, float64(0), refreshed.RemainingBalance())
}
