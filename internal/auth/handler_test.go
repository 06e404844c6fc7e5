package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/drydock-works/drydock/internal/auth"
	"github.com/drydock-works/drydock/internal/shared"
	_ "github.com/drydock-works/drydock/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

// commitWriter mirrors the application's session middleware response writer:
// the session is committed (and its cookie written) before the first byte of
// the response goes out, since headers cannot be added afterwards.
type commitWriter struct {
	http.ResponseWriter
	sessions      *shared.SessionManager
	sess          *shared.Session
	ctx           context.Context
	req           *http.Request
	t             *testing.T
	headerWritten bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		require.NoError(w.t, w.sessions.Commit(w.ctx, w.ResponseWriter, w.req, w.sess))
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// newAuthRouter mounts the auth handler behind the same session middleware
// shape the application installs, backed by an in-process redis.
func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *miniredis.Miniredis, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	tokens := auth.NewTokenIssuer("tokensecret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessions, csrf, tokens)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			wrapped := &commitWriter{
				ResponseWriter: w,
				sessions:       sessions,
				sess:           sess,
				ctx:            ctx,
				req:            req.WithContext(ctx),
				t:              t,
			}
			next.ServeHTTP(wrapped, req.WithContext(ctx))
			if !wrapped.headerWritten {
				require.NoError(t, sessions.Commit(ctx, w, req, sess))
			}
		})
	})
	handler.MountRoutes(r)
	return r, mr, sessions
}

func activeUser(t *testing.T, role auth.Role) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           42,
		Email:        "user@test.local",
		FullName:     "Test User",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
}

func doLogin(t *testing.T, router http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, auth.RoleInspector)}
	router, _, sessions := newAuthRouter(t, repo)

	res := doLogin(t, router, "user@test.local", "correct-horse")
	require.Equal(t, http.StatusOK, res.Code)

	var resp struct {
		UserID     int64  `json:"user_id"`
		FullName   string `json:"full_name"`
		Role       string `json:"role"`
		CSRFToken  string `json:"csrf_token"`
		AdminToken string `json:"admin_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.UserID)
	assert.Equal(t, "inspector", resp.Role)
	assert.NotEmpty(t, resp.CSRFToken)
	assert.Empty(t, resp.AdminToken, "non-admin logins must not receive a bearer token")

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessions.CookieName(), cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.Len(t, repo.sessions, 1)
}

func TestLoginAdminReceivesToken(t *testing.T) {
	router, _, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, auth.RoleAdmin)})

	res := doLogin(t, router, "user@test.local", "correct-horse")
	require.Equal(t, http.StatusOK, res.Code)

	var resp struct {
		AdminToken string `json:"admin_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AdminToken)

	claims, err := auth.NewTokenIssuer("tokensecret", time.Hour).Verify(resp.AdminToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@test.local", claims.Email)
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, auth.RoleCustomer)})

	res := doLogin(t, router, "user@test.local", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, auth.RoleCustomer)
	user.IsActive = false
	router, _, _ := newAuthRouter(t, &stubRepo{user: user})

	res := doLogin(t, router, "user@test.local", "correct-horse")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginMalformedBody(t *testing.T) {
	router, _, _ := newAuthRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte("{not json")))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestMeWithoutSession(t *testing.T) {
	router, _, _ := newAuthRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeAfterLogin(t *testing.T) {
	router, _, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, auth.RoleAccountant)})

	login := doLogin(t, router, "user@test.local", "correct-horse")
	require.Equal(t, http.StatusOK, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp["user_id"])
	assert.Equal(t, "accountant", resp["role"])
	assert.NotEmpty(t, resp["csrf_token"])
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, auth.RoleWorkshop)}
	router, mr, _ := newAuthRouter(t, repo)

	login := doLogin(t, router, "user@test.local", "correct-horse")
	require.Equal(t, http.StatusOK, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.True(t, mr.Exists("session:"+cookies[0].Value))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	assert.False(t, mr.Exists("session:"+cookies[0].Value))
	assert.Empty(t, repo.sessions, "login audit row should be removed on logout")

	// A subsequent /me with the stale cookie must be anonymous again.
	meReq := httptest.NewRequest(http.MethodGet, "/me", nil)
	meReq.AddCookie(cookies[0])
	meRes := httptest.NewRecorder()
	router.ServeHTTP(meRes, meReq)
	assert.Equal(t, http.StatusUnauthorized, meRes.Code)
}
