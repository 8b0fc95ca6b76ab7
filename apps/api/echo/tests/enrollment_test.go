package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/lopay/apps/api/echo"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/billing"
	"github.com/trezcool/lopay/core/enrollment"
	testutil "github.com/trezcool/lopay/tests"
)

func Test_enrollmentApi_query(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schoolRepo, "Unity High", map[string]float64{"Grade 1": 120000})
	otherSch := testutil.CreateSchool(t, schoolRepo, "Hope Academy", map[string]float64{"Grade 1": 90000})

	guardian := testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)
	testutil.CreateAccount(t, acctRepo, "Admin", "admin@test.cd", "mdr", account.RoleSchoolAdmin, sch.ID, true)
	testutil.CreateAccount(t, acctRepo, "Owner", "owner@test.cd", "mdr", account.RoleOwner, "", true)

	mine := testutil.CreateEnrollment(t, enrRepo, guardian.ID, sch.ID, "Amina", 120000, 0, enrollment.StatusPending)
	foreign := testutil.CreateEnrollment(t, enrRepo, "someone-else", otherSch.ID, "Junior", 90000, 0, enrollment.StatusPending)

	listIDs := func(t *testing.T, token string) []string {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/enrollments", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var enrs []enrollment.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrs))
		ids := make([]string, 0, len(enrs))
		for _, enr := range enrs {
			ids = append(ids, enr.ID)
		}
		return ids
	}

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/enrollments")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
	t.Run("guardian sees own", func(t *testing.T) {
		assert.ElementsMatch(t, []string{mine.ID}, listIDs(t, logIn(t, app, "guardian@test.cd", "mdr")))
	})
	t.Run("school admin sees school", func(t *testing.T) {
		assert.ElementsMatch(t, []string{mine.ID}, listIDs(t, logIn(t, app, "admin@test.cd", "mdr")))
	})
	t.Run("owner sees all", func(t *testing.T) {
		assert.ElementsMatch(t, []string{mine.ID, foreign.ID}, listIDs(t, logIn(t, app, "owner@test.cd", "mdr")))
	})

	t.Run("foreign detail hidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/enrollments/"+foreign.ID, logIn(t, app, "guardian@test.cd", "mdr"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_enrollmentApi_quote(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schoolRepo, "Unity High", map[string]float64{"Grade 1": 120000})
	testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)
	token := logIn(t, app, "guardian@test.cd", "mdr")

	t.Run("term quote", func(t *testing.T) {
		body := marshallObj(t, QuoteRequest{SchoolID: sch.ID, Grade: "Grade 1", FeeType: billing.FeeTypeTerm})
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/quote", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var q billing.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
		assert.Equal(t, float64(120000), q.TotalFee)
		assert.Equal(t, float64(30000), q.DepositAmount)
		assert.Equal(t, float64(3000), q.PlatformFeeAmount)
		assert.Equal(t, float64(33000), q.TotalInitialPayment)
		assert.Equal(t, float64(90000), q.RemainingBalance)
		require.Len(t, q.Plans, 2)
		assert.Equal(t, 12, q.Plans[0].NumberOfPayments)
		assert.Equal(t, 3, q.Plans[1].NumberOfPayments)
	})

	t.Run("unpublished grade", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "no fee published for this grade"})}
		body := marshallObj(t, QuoteRequest{SchoolID: sch.ID, Grade: "Grade 9", FeeType: billing.FeeTypeTerm})
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/quote", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown fee type", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"fee_type": "unknown fee type"})}
		body := marshallObj(t, QuoteRequest{SchoolID: sch.ID, Grade: "Grade 1", FeeType: "yearly"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/quote", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_enrollmentApi_create(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schoolRepo, "Unity High", map[string]float64{"Grade 1": 120000})
	testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)
	token := logIn(t, app, "guardian@test.cd", "mdr")

	body := marshallObj(t, enrollment.NewEnrollment{
		ChildName: " Amina ",
		SchoolID:  sch.ID,
		Grade:     "Grade 1",
		FeeType:   billing.FeeTypeTerm,
		PlanType:  billing.PlanMonthly,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", token, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var enr enrollment.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))
	assert.Equal(t, "Amina", enr.ChildName)
	assert.Equal(t, sch.ID, enr.SchoolID)
	assert.Equal(t, sch.Name, enr.SchoolName)
	// the fee is locked from the published schedule
	assert.Equal(t, float64(120000), enr.TotalFee)
	assert.Equal(t, enrollment.StatusPending, enr.Status)
	assert.False(t, enr.NextDueDate.IsZero())
}
