package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/vidwanic/backend/apps/api/echo"
	"github.com/vidwanic/backend/core/user"
	emailsvc "github.com/vidwanic/backend/services/email"
	testutil "github.com/vidwanic/backend/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", "LordOfTheRings", false, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.in", "LordOfTheRings", false, false)

	login := func(uname, pwd string) []byte {
		return []byte(fmt.Sprintf(`{"username": %q, "password": %q}`, uname, pwd))
	}

	tests := []httpTest{
		{name: "Required fields", body: []byte("{}"), wantCode: http.StatusBadRequest},
		{
			name: "Unknown user", body: login("lol", "LordOfTheRings"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password", body: login("hero", "wrong"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Deactivated account", body: login("ndog", "LordOfTheRings"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "Login with username", body: login("hero", "LordOfTheRings"), wantCode: http.StatusOK},
		{name: "Login with email", body: login("hero@test.in", "LordOfTheRings"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				return
			}
			var res struct {
				Token string `json:"token"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.NotEmpty(t, res.Token)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", "", true, true)

	newUsr := user.NewUser{
		Name:     "New Kid",
		Username: "newkid",
		Email:    "newkid@test.in",
		Password: "Str0ng&Unrelated!",
	}

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, newUsr),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", token: getToken(t, usr), body: marchallObj(t, newUsr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Required fields", token: getToken(t, admin), body: []byte("{}"), wantCode: http.StatusBadRequest},
		{
			name: "Duplicate email", token: getToken(t, admin),
			body: marchallObj(t, user.NewUser{
				Name: "Copy Cat", Username: "copycat", Email: "hero@test.in", Password: "Str0ng&Unrelated!",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{name: "Register ok", token: getToken(t, admin), body: marchallObj(t, newUsr), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}
			var got user.User
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "newkid", got.Username)
			assert.True(t, got.IsActive)
			assert.False(t, got.IsAdmin)
		})
	}
}

func Test_userApi_retrieveUpdate(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", "", false, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other", "other@test.in", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", "", true, true)

	t.Run("Retrieve self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, getToken(t, usr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, usr.ID, got.ID)
	})

	t.Run("Retrieve other is hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+other.ID, getToken(t, usr))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Admin retrieves anyone", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+other.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Update own name", func(t *testing.T) {
		body := []byte(`{"name": "Hero Renamed"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+usr.ID, getToken(t, usr), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Hero Renamed", got.Name)
	})

	t.Run("Non-admin cannot change email", func(t *testing.T) {
		body := []byte(`{"email": "sneaky@test.in"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+usr.ID, getToken(t, usr), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Admin deactivates a user", func(t *testing.T) {
		body := []byte(`{"is_active": false}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+other.ID, getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.False(t, got.IsActive)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", "LordOfTheRings", false, true)

	t.Run("Unknown email still succeeds", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "ghost@test.in"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, emailsvc.SentMessages)
	})

	t.Run("Reset flow", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "hero@test.in"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, emailsvc.SentMessages, 1)

		token, err := user.MakeToken(usr)
		require.NoError(t, err)

		body := marchallObj(t, user.ResetUserPassword{
			UID:             user.EncodeUID(usr),
			Token:           token,
			Password:        "An0ther&Unrelated!",
			PasswordConfirm: "An0ther&Unrelated!",
		})
		req, rec = newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		// old password no longer works
		req, rec = newRequest(http.MethodPost, "/v1/users/login", []byte(`{"username": "hero", "password": "LordOfTheRings"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		req, rec = newRequest(http.MethodPost, "/v1/users/login", []byte(`{"username": "hero", "password": "An0ther&Unrelated!"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.in", "", false, true)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Refresh ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotEmpty(t, res.Token)

		var claims echoapi.Claims
		parser := jwt.Parser{}
		_, _, err := parser.ParseUnverified(res.Token, &claims)
		require.NoError(t, err)
		assert.Equal(t, usr.ID, claims.Subject)
	})
}
