package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ideasplace/internal/auth"
	"ideasplace/internal/cache"
	"ideasplace/internal/email"
	"ideasplace/internal/handler"
	"ideasplace/internal/model"
	"ideasplace/internal/repository"
	"ideasplace/internal/service"
	"ideasplace/internal/testutil"
)

type testApp struct {
	e      *echo.Echo
	db     *gorm.DB
	mailer *email.MemoryMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gormDB := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cacheClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := email.NewMemoryMailer()

	userRepo := repository.NewUserRepository(gormDB)
	ideaRepo := repository.NewIdeaRepository(gormDB)
	likeRepo := repository.NewLikeRepository(gormDB)

	jwtService := auth.NewJWTService("test-secret", time.Minute, time.Hour)
	tokenStore := auth.NewTokenStore(cacheClient)
	activationTokens := auth.NewActivationTokenGenerator("test-secret", time.Hour)

	activationService := service.NewActivationService(userRepo, activationTokens, mailer, cacheClient, "http://ideas.test", logger)
	userService := service.NewUserService(userRepo, ideaRepo, activationService, cacheClient, logger)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	ideaService := service.NewIdeaService(ideaRepo, logger)
	likeService := service.NewLikeService(likeRepo, ideaRepo)

	e := echo.New()
	Register(
		e,
		logger,
		jwtService,
		handler.NewUserHandler(userService, activationService),
		handler.NewAuthHandler(authService),
		handler.NewIdeaHandler(ideaService, likeService),
		handler.NewLikeHandler(likeService),
		handler.NewActivationPageHandler(activationService, logger),
	)

	return &testApp{e: e, db: gormDB, mailer: mailer}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// register signs a user up and returns the uid/token pair from the mail.
func (a *testApp) register(t *testing.T, username string) (string, string) {
	t.Helper()

	status, body := a.do(t, http.MethodPost, "/api/v1/users/signup/", map[string]interface{}{
		"new_user": map[string]string{
			"username": username,
			"email":    username + "@example.com",
			"password": "correct-Horse-42",
		},
	}, "")
	require.Equal(t, http.StatusCreated, status, body)

	outbox := a.mailer.Outbox()
	require.NotEmpty(t, outbox)
	uid, token, ok := email.ParseActivationLink(outbox[len(outbox)-1].Body)
	require.True(t, ok)
	return uid, token
}

func (a *testApp) activate(t *testing.T, uid, token string) (int, map[string]interface{}) {
	return a.do(t, http.MethodPost, "/api/v1/users/activate/", map[string]interface{}{
		"activation": map[string]string{"uid": uid, "token": token},
	}, "")
}

func (a *testApp) login(t *testing.T, username string) (string, string) {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/v1/token/", map[string]string{
		"username": username,
		"password": "correct-Horse-42",
	}, "")
	require.Equal(t, http.StatusOK, status, body)
	return body["access"].(string), body["refresh"].(string)
}

func (a *testApp) activeUser(t *testing.T, username string) string {
	t.Helper()
	uid, token := a.register(t, username)
	status, body := a.activate(t, uid, token)
	require.Equal(t, http.StatusOK, status, body)
	access, _ := a.login(t, username)
	return access
}

func TestEndToEnd(t *testing.T) {
	app := newTestApp(t)

	uid, token := app.register(t, "alice")
	require.Len(t, app.mailer.Outbox(), 1)
	assert.Equal(t, []string{"alice@example.com"}, app.mailer.Outbox()[0].To)

	var alice model.User
	require.NoError(t, app.db.Where("username = ?", "alice").First(&alice).Error)
	assert.False(t, alice.IsActive)

	// inactive accounts cannot log in
	status, body := app.do(t, http.MethodPost, "/api/v1/token/", map[string]string{"username": "alice", "password": "correct-Horse-42"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No active account found with the given credentials", body["detail"])

	status, body = app.activate(t, uid, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User alice successfully activated", body["success"])

	status, body = app.activate(t, uid, token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Given token is stale", body["detail"])

	access, _ := app.login(t, "alice")

	status, body = app.do(t, http.MethodPost, "/api/v1/ideas/", map[string]interface{}{
		"new_idea": map[string]string{"i_title": "Solar roads", "i_text": "Pave roads with panels"},
	}, access)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "The Idea Solar roads saved", body["success"])

	var idea model.Idea
	require.NoError(t, app.db.First(&idea).Error)

	status, body = app.do(t, http.MethodGet, "/api/v1/ideas/", nil, access)
	require.Equal(t, http.StatusOK, status)
	all := body["all_ideas"].([]interface{})
	require.Len(t, all, 1)
	summary := all[0].(map[string]interface{})
	assert.Equal(t, "http://example.com/api/v1/ideas/1/", summary["url"])
	assert.Equal(t, "http://example.com/api/v1/users/1/", summary["author"])
	assert.Equal(t, "Solar roads", summary["i_title"])

	status, body = app.do(t, http.MethodGet, "/api/v1/ideas/1/", nil, access)
	require.Equal(t, http.StatusOK, status)
	detail := body["idea"].(map[string]interface{})
	assert.Equal(t, "Pave roads with panels", detail["i_text"])
	assert.Equal(t, map[string]interface{}{
		"is_like": false, "is_unlike": false, "overall_likes": float64(0), "overall_unlikes": float64(0),
	}, detail["likes_status"])

	status, body = app.do(t, http.MethodPost, "/api/v1/ideas/1/add-likes/", map[string]interface{}{
		"likes_status": map[string]bool{"is_like": true},
	}, access)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Likes status for idea`s id=1 saved", body["success"])

	status, body = app.do(t, http.MethodGet, "/api/v1/ideas/1/", nil, access)
	require.Equal(t, http.StatusOK, status)
	likes := body["idea"].(map[string]interface{})["likes_status"].(map[string]interface{})
	assert.Equal(t, float64(1), likes["overall_likes"])
	assert.Equal(t, true, likes["is_like"])
}

func TestSignupValidation(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")

	status, body := app.do(t, http.MethodPost, "/api/v1/users/signup/", map[string]interface{}{
		"new_user": map[string]string{"username": "alice", "email": "other@example.com", "password": "correct-Horse-42"},
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"A user with that username already exists."}, body["username"])

	status, body = app.do(t, http.MethodPost, "/api/v1/users/signup/", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"No data provided"}, body["non_field_errors"])

	var count int64
	require.NoError(t, app.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Len(t, app.mailer.Outbox(), 1)
}

func TestSignupRollsBackWhenMailFails(t *testing.T) {
	app := newTestApp(t)
	app.mailer.FailWith(assert.AnError)

	status, body := app.do(t, http.MethodPost, "/api/v1/users/signup/", map[string]interface{}{
		"new_user": map[string]string{"username": "alice", "email": "alice@example.com", "password": "correct-Horse-42"},
	}, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "A server error occurred.", body["detail"])

	var count int64
	require.NoError(t, app.db.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestActivationFailures(t *testing.T) {
	app := newTestApp(t)
	uid, token := app.register(t, "alice")

	status, body := app.activate(t, uid, token+"x")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"Invalid activation Token"}, body["token"])

	status, body = app.activate(t, auth.EncodeUID(999), token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"Invalid user's UID "}, body["uid"])

	status, body = app.do(t, http.MethodPost, "/api/v1/users/activate/", map[string]interface{}{
		"activation": map[string]string{"uid": uid},
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"This field is required."}, body["token"])

	var alice model.User
	require.NoError(t, app.db.Where("username = ?", "alice").First(&alice).Error)
	assert.False(t, alice.IsActive)
}

func TestOwnershipAndAuthentication(t *testing.T) {
	app := newTestApp(t)
	alice := app.activeUser(t, "alice")
	bob := app.activeUser(t, "bob")

	status, _ := app.do(t, http.MethodPost, "/api/v1/ideas/", map[string]interface{}{"new_idea": map[string]string{}}, alice)
	require.Equal(t, http.StatusCreated, status)

	update := map[string]interface{}{"updated_idea": map[string]string{"i_title": "Hijacked"}}

	status, body := app.do(t, http.MethodPut, "/api/v1/ideas/1/", update, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication credentials were not provided.", body["detail"])

	status, body = app.do(t, http.MethodDelete, "/api/v1/ideas/1/", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, detailInvalidToken, body["detail"])

	status, body = app.do(t, http.MethodPut, "/api/v1/ideas/1/", update, bob)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to perform this action.", body["detail"])

	status, _ = app.do(t, http.MethodDelete, "/api/v1/ideas/1/", nil, bob)
	assert.Equal(t, http.StatusForbidden, status)

	var idea model.Idea
	require.NoError(t, app.db.First(&idea, 1).Error)
	assert.Equal(t, model.DefaultIdeaTitle, idea.Title)
	assert.Equal(t, model.DefaultIdeaText, idea.Text)

	status, body = app.do(t, http.MethodPut, "/api/v1/ideas/1/", map[string]interface{}{"updated_idea": map[string]string{"i_text": "Better text"}}, alice)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "The Idea My New Ideas TITLE updated successfully", body["success"])

	status, body = app.do(t, http.MethodPut, "/api/v1/ideas/1/", map[string]interface{}{"updated_idea": map[string]string{"i_title": ""}}, alice)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"This field may not be blank."}, body["i_title"])

	status, _ = app.do(t, http.MethodPut, "/api/v1/ideas/404/", update, alice)
	assert.Equal(t, http.StatusNotFound, status)

	// likes on another user's idea, then delete cascades
	status, _ = app.do(t, http.MethodPost, "/api/v1/ideas/1/add-likes/", map[string]interface{}{"likes_status": map[string]bool{"is_unlike": true}}, bob)
	require.Equal(t, http.StatusOK, status)
	status, _ = app.do(t, http.MethodPost, "/api/v1/ideas/1/add-likes/", map[string]interface{}{"likes_status": map[string]bool{"is_like": true}}, bob)
	require.Equal(t, http.StatusOK, status)

	var likes []model.Like
	require.NoError(t, app.db.Where("idea_id = ?", 1).Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.True(t, likes[0].IsLike)
	assert.True(t, likes[0].IsUnlike)

	status, _ = app.do(t, http.MethodPost, "/api/v1/ideas/404/add-likes/", map[string]interface{}{"likes_status": map[string]bool{"is_like": true}}, bob)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = app.do(t, http.MethodDelete, "/api/v1/ideas/1/", nil, alice)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "The Idea with id=1 disappeared", body["success"])

	var remaining int64
	require.NoError(t, app.db.Model(&model.Like{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	status, body = app.do(t, http.MethodGet, "/api/v1/ideas/1/", nil, alice)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found.", body["detail"])
}

func TestUserProfile(t *testing.T) {
	app := newTestApp(t)
	alice := app.activeUser(t, "alice")
	bob := app.activeUser(t, "bob")

	status, _ := app.do(t, http.MethodPost, "/api/v1/ideas/", map[string]interface{}{"new_idea": map[string]string{"i_title": "One"}}, alice)
	require.Equal(t, http.StatusCreated, status)

	status, body := app.do(t, http.MethodGet, "/api/v1/users/1/", nil, alice)
	require.Equal(t, http.StatusOK, status)
	author := body["author"].(map[string]interface{})
	assert.Equal(t, "alice", author["username"])
	assert.Equal(t, "alice@example.com", author["email"])
	assert.Equal(t, []interface{}{"http://example.com/api/v1/ideas/1/"}, author["ideas"])

	status, body = app.do(t, http.MethodGet, "/api/v1/users/1/", nil, bob)
	require.Equal(t, http.StatusOK, status)
	author = body["author"].(map[string]interface{})
	assert.NotContains(t, author, "email")

	status, _ = app.do(t, http.MethodGet, "/api/v1/users/99/", nil, bob)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = app.do(t, http.MethodGet, "/api/v1/users/1/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTokenRefreshAndLogout(t *testing.T) {
	app := newTestApp(t)
	uid, token := app.register(t, "alice")
	status, _ := app.activate(t, uid, token)
	require.Equal(t, http.StatusOK, status)
	access, refresh := app.login(t, "alice")

	// refresh tokens do not authenticate API calls
	status, _ = app.do(t, http.MethodGet, "/api/v1/ideas/", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := app.do(t, http.MethodPost, "/api/v1/token/refresh/", map[string]string{"refresh": refresh}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access"])

	status, _ = app.do(t, http.MethodPost, "/api/v1/token/refresh/", map[string]string{"refresh": access}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = app.do(t, http.MethodPost, "/api/v1/token/refresh/", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"This field is required."}, body["refresh"])

	status, _ = app.do(t, http.MethodPost, "/api/v1/token/logout/", map[string]string{"refresh": refresh}, "")
	require.Equal(t, http.StatusOK, status)

	status, body = app.do(t, http.MethodPost, "/api/v1/token/refresh/", map[string]string{"refresh": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token is invalid or expired", body["detail"])
}

func TestBearerHeaderParsing(t *testing.T) {
	app := newTestApp(t)
	access := app.activeUser(t, "alice")

	for _, header := range []string{"Bearer " + access, "Bearer  " + access, "bearer " + access} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas/", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		rec := httptest.NewRecorder()
		app.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, header)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token "+access)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActivationPage(t *testing.T) {
	app := newTestApp(t)
	uid, token := app.register(t, "alice")

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		app.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/activation/" + uid + "/" + token + "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML))
	assert.Contains(t, rec.Body.String(), "User alice successfully activated")

	rec = get("/activation/" + uid + "/" + token + "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Given token is stale")

	rec = get("/activation/" + uid + "/not_a_token/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	app.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	status, body := app.do(t, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "detail")

	// unknown API paths sit behind authentication
	status, _ = app.do(t, http.MethodGet, "/api/v1/nowhere/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLongPasswordSignupAndLogin(t *testing.T) {
	app := newTestApp(t)
	password := strings.Repeat("Zq7-horse-", 9)
	require.Greater(t, len(password), 72)

	status, body := app.do(t, http.MethodPost, "/api/v1/users/signup/", map[string]interface{}{
		"new_user": map[string]string{"username": "alice", "email": "alice@example.com", "password": password},
	}, "")
	require.Equal(t, http.StatusCreated, status, body)

	uid, token, ok := email.ParseActivationLink(app.mailer.Outbox()[0].Body)
	require.True(t, ok)
	status, _ = app.activate(t, uid, token)
	require.Equal(t, http.StatusOK, status)

	status, body = app.do(t, http.MethodPost, "/api/v1/token/", map[string]string{"username": "alice", "password": password}, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["access"])

	// a different last byte must not log in
	status, _ = app.do(t, http.MethodPost, "/api/v1/token/", map[string]string{"username": "alice", "password": password[:len(password)-1] + "!"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateChecksOwnershipBeforeBody(t *testing.T) {
	app := newTestApp(t)
	alice := app.activeUser(t, "alice")
	bob := app.activeUser(t, "bob")

	status, _ := app.do(t, http.MethodPost, "/api/v1/ideas/", map[string]interface{}{"new_idea": map[string]string{"i_title": "Mine"}}, alice)
	require.Equal(t, http.StatusCreated, status)

	mistyped := map[string]interface{}{"updated_idea": map[string]interface{}{"i_title": 5}}

	status, body := app.do(t, http.MethodPut, "/api/v1/ideas/1/", mistyped, bob)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to perform this action.", body["detail"])

	status, _ = app.do(t, http.MethodPut, "/api/v1/ideas/99/", mistyped, bob)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = app.do(t, http.MethodPut, "/api/v1/ideas/1/", mistyped, alice)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = app.do(t, http.MethodPut, "/api/v1/ideas/1/", map[string]interface{}{}, alice)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"No data provided"}, body["non_field_errors"])
}
