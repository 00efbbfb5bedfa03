package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiongozi/apps/api/echo"
	"github.com/trezcool/kiongozi/core/user"
	"github.com/trezcool/kiongozi/services/email"
	"github.com/trezcool/kiongozi/tests"
)

const (
	pwd    = "Kx9#mLq2vR"
	newPwd = "Zt4!pWn8sQ"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true)
	testutil.CreateUser(t, env.usrRepo, "Gone", "gone@test.cd", pwd, user.RoleManager, "", false)

	login := func(email, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Email: email, Password: pwd})
	}
	runTests(t, env, httpTests{
		{
			name: "empty body", method: http.MethodPost, path: "/v1/users/login", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "", Message: "request body is required"})),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/users/login", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newNotOK(
				fieldErr{Path: "email", Message: "this field is required"},
				fieldErr{Path: "password", Message: "this field is required"},
			)),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login", body: login("nobody@test.cd", pwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login", body: login("jane@test.cd", "nope"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/login", body: login("gone@test.cd", pwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("success", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/users/login", "", login(" JANE@test.cd ", pwd))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp echoapi.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)

		rec = env.do(http.MethodGet, "/v1/users/me", resp.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var me user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		assert.Equal(t, "jane@test.cd", me.Email)
		assert.False(t, me.LastLogin.IsZero())
	})
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)
	jane := testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true)
	gone := testutil.CreateUser(t, env.usrRepo, "Gone", "gone@test.cd", pwd, user.RoleManager, "", false)

	runTests(t, env, httpTests{
		{name: "auth required", method: http.MethodGet, path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid token", method: http.MethodGet, path: "/v1/users/me", token: "not.a.token",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "deactivated", method: http.MethodGet, path: "/v1/users/me", token: env.getToken(t, gone),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "ok", method: http.MethodGet, path: "/v1/users/me/", token: env.getToken(t, jane), wantData: marchallObj(t, jane)},
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	jane := testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true)
	gone := testutil.CreateUser(t, env.usrRepo, "Gone", "gone@test.cd", pwd, user.RoleManager, "", false)

	now := time.Now()
	unrefreshableClaims := env.auth.UserClaims(jane)
	unrefreshableClaims.StandardClaims = jwt.StandardClaims{
		Subject:   jane.ID,
		ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
		IssuedAt:  now.Unix(),
	}
	unrefreshableClaims.OrigIssuedAt = now.Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix() // older than threshold
	unrefreshableToken, err := env.auth.GenerateToken(unrefreshableClaims)
	require.NoError(t, err)

	runTests(t, env, httpTests{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "inactive user not allowed", token: env.getToken(t, gone), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
	}.withRequest(http.MethodPost, "/v1/users/token-refresh"))

	t.Run("token refreshed", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/users/token-refresh", env.getToken(t, jane))
		require.Equal(t, http.StatusOK, rec.Code)
		// cannot guess new token.. just check that it's not empty
		var resp echoapi.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true)

	success := marchallObj(t, echoapi.SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	runTests(t, env, httpTests{
		{
			name: "invalid email", body: []byte(`{"email":"nope"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "email", Message: "email must be a valid email address"})),
		},
		{name: "unknown email", body: []byte(`{"email":"nobody@test.cd"}`), wantData: success},
		{name: "known email", body: []byte(`{"email":"Jane@test.cd"}`), wantData: success},
	}.withRequest(http.MethodPost, "/v1/users/password-reset"))

	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	require.Len(t, emailsvc.SentMessages, 1)
	data := msg.TemplateData.(map[string]interface{})

	confirm := func(token string) []byte {
		return marchallObj(t, map[string]string{
			"uid":              data["UID"].(string),
			"token":            token,
			"password":         newPwd,
			"password_confirm": newPwd,
		})
	}
	runTests(t, env, httpTests{
		{
			name: "invalid token", body: confirm("abc-def"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "token", Message: user.ErrInvalidToken.Error()})),
		},
		{name: "password reset", body: confirm(data["Token"].(string)), wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."})},
	}.withRequest(http.MethodPost, "/v1/users/password-reset-confirm"))

	rec := env.do(http.MethodPost, "/v1/users/login", "", marchallObj(t, echoapi.LoginRequest{Email: "jane@test.cd", Password: newPwd}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_userApi_register(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin@test.cd", pwd, user.RoleAdmin, "", true)
	mgr := testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true)

	body := func(email string) []byte {
		return marchallObj(t, map[string]string{
			"name":             "John Doe",
			"email":            email,
			"role":             user.RoleManager,
			"password":         pwd,
			"password_confirm": pwd,
		})
	}
	runTests(t, env, httpTests{
		{name: "auth required", body: body("john@test.cd"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", body: body("john@test.cd"), token: env.getToken(t, mgr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "email taken", body: body("JANE@test.cd"), token: env.getToken(t, admin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "email", Message: user.ErrEmailExists.Error()})),
		},
		{
			name: "wrong type", token: env.getToken(t, admin), wantCode: http.StatusBadRequest,
			body: marchallObj(t, map[string]interface{}{
				"name": 42, "email": "john@test.cd", "role": user.RoleManager, "password": pwd, "password_confirm": pwd,
			}),
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "name", Message: "expected string, got number"})),
		},
	}.withRequest(http.MethodPost, "/v1/users/register"))

	rec := env.do(http.MethodPost, "/v1/users/register", env.getToken(t, admin), body("john@test.cd"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var usr user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "john@test.cd", usr.Email)
	assert.True(t, usr.IsManager())
}
