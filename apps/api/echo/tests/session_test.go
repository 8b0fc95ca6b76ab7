package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/lopay/apps/api/echo"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/session"
	testutil "github.com/trezcool/lopay/tests"
)

func Test_sessionApi_actingRole(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schoolRepo, "Unity High", map[string]float64{"Grade 1": 120000})
	otherSch := testutil.CreateSchool(t, schoolRepo, "Hope Academy", nil)

	owner := testutil.CreateAccount(t, acctRepo, "Owner", "owner@test.cd", "mdr", account.RoleOwner, "", true)
	testutil.CreateAccount(t, acctRepo, "Guardian", "guardian@test.cd", "mdr", account.RoleGuardian, "", true)

	inSchool := testutil.CreateEnrollment(t, enrRepo, "g-1", sch.ID, "Amina", 120000, 0, enrollment.StatusPending)
	testutil.CreateEnrollment(t, enrRepo, "g-2", otherSch.ID, "Junior", 90000, 0, enrollment.StatusPending)

	ownerToken := logIn(t, app, "owner@test.cd", "mdr")
	guardianToken := logIn(t, app, "guardian@test.cd", "mdr")

	t.Run("owner only", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: session.ErrNotOwner.Error()})}
		body := marshallObj(t, ActingRoleRequest{Role: account.RoleSchoolAdmin, SchoolID: sch.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/session/acting-role", guardianToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	var actingToken string
	t.Run("owner acts as school admin", func(t *testing.T) {
		body := marshallObj(t, ActingRoleRequest{Role: account.RoleSchoolAdmin, SchoolID: sch.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/session/acting-role", ownerToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, owner.ID, resp.AccountID)
		assert.Equal(t, account.RoleSchoolAdmin, resp.Role)
		assert.Equal(t, sch.ID, resp.SchoolID)
		assert.True(t, resp.Impersonating)
		require.NotEmpty(t, resp.Token)
		actingToken = resp.Token
	})

	t.Run("acting token is school scoped", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enrollments", actingToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var enrs []enrollment.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrs))
		require.Len(t, enrs, 1)
		assert.Equal(t, inSchool.ID, enrs[0].ID)
	})

	t.Run("exit restores owner scope", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/session/acting-role", actingToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, account.RoleOwner, resp.Role)
		assert.False(t, resp.Impersonating)
		require.NotEmpty(t, resp.Token)

		req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments", resp.Token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var enrs []enrollment.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrs))
		assert.Len(t, enrs, 2)
	})

	t.Run("current session", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/session", ownerToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, account.RoleOwner, resp.Role)
		assert.False(t, resp.Impersonating)
		assert.Empty(t, resp.Token) // only role switches mint tokens
	})
}
