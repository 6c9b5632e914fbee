//go:build unit || e2e

package authtest

import (
	"encoding/json"
	"net/http"
	"testing"

	"villa-booking/internal/handler/dto/request"
	"villa-booking/internal/handler/dto/response"
	"villa-booking/internal/pkg/testutil/dbtest"
	"villa-booking/internal/pkg/testutil/httptest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// LoginUser returns the bearer token issued for the credentials.
func LoginUser(t *testing.T, handler http.Handler, email, password string) string {
	t.Helper()

	w := httptest.PerformRequest(t, handler, http.MethodPost, "/api/auth/login",
		request.LoginRequest{Email: email, Password: password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res response.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.AccessToken, "access token is empty")

	return res.AccessToken
}

func CreateAndLogin(t *testing.T, db dbtest.DBLike, handler http.Handler, email, role string) (uuid.UUID, string) {
	t.Helper()
	id := dbtest.CreateTestUser(t, db, email, role)
	return id, LoginUser(t, handler, email, dbtest.TestPassword)
}
