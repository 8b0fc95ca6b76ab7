package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lopay/core/account"
	testutil "github.com/trezcool/lopay/tests"
)

func Test_accountApi_register(t *testing.T) {
	app := setup(t)

	taken := testutil.CreateAccount(t, acctRepo, "Taken", "taken@test.cd", "mdr", account.RoleGuardian, "", true)

	// password policy compliant: length, case mix, digit, special char
	pwd := "G00d#pass"

	payload := func(name, email, role string) []byte {
		return marshallObj(t, account.NewAccount{
			Name:            name,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Role:            role,
		})
	}

	tests := []httpTest{
		{
			name: "privileged role forbidden", body: payload("Sneaky", "sneaky@test.cd", account.RoleSchoolAdmin),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "owner role forbidden", body: payload("Sneakier", "sneakier@test.cd", account.RoleOwner),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "email required", body: payload("No Email", "", ""),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "email taken", body: payload("Copy Cat", taken.Email, ""),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"email": account.ErrEmailExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/accounts/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("guardian signup", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/accounts/register", payload("Maman Kinshasa", "Maman@Test.cd", ""))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var acct account.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
		assert.Equal(t, account.RoleGuardian, acct.Role)
		assert.Equal(t, "maman@test.cd", acct.Email) // cleaned and lowered
		assert.True(t, acct.IsActive)

		// the new credentials work
		logIn(t, app, "maman@test.cd", pwd)
	})
}

func Test_accountApi_query(t *testing.T) {
	app := setup(t)

	testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)
	testutil.CreateAccount(t, acctRepo, "Owner", "owner@test.cd", "mdr", account.RoleOwner, "", true)

	guardianToken := logIn(t, app, "guardian@test.cd", "mdr")
	ownerToken := logIn(t, app, "owner@test.cd", "mdr")

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "owner required", token: guardianToken, wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/accounts", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("owner gets all", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts", ownerToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var accounts []account.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
		assert.Len(t, accounts, 2)
	})
}

func Test_accountApi_detail(t *testing.T) {
	app := setup(t)

	guardian := testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)
	other := testutil.CreateAccount(t, acctRepo, "Other", "other@test.cd", "mdr", account.RoleGuardian, "", true)
	owner := testutil.CreateAccount(t, acctRepo, "Owner", "owner@test.cd", "mdr", account.RoleOwner, "", true)

	guardianToken := logIn(t, app, "guardian@test.cd", "mdr")
	ownerToken := logIn(t, app, "owner@test.cd", "mdr")

	errNotFound := marshallObj(t, httpErr{Error: "not found"})

	t.Run("own account", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/"+guardian.ID, guardianToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var acct account.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
		assert.Equal(t, guardian.ID, acct.ID)
	})

	t.Run("foreign account hidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: errNotFound}
		req, rec := newAuthRequest(http.MethodGet, "/v1/accounts/"+other.ID, guardianToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("delete requires owner", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/"+guardian.ID, guardianToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("owner cannot delete themselves", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/"+owner.ID, ownerToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("owner deletes account", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/accounts/"+other.ID, ownerToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		tt := httpTest{wantCode: http.StatusNotFound, wantData: errNotFound}
		req, rec = newAuthRequest(http.MethodGet, "/v1/accounts/"+other.ID, ownerToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
