package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-timeoff/internal/auth"
	autherrors "go-timeoff/internal/auth/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	registerFn func(ctx context.Context, req auth.RegisterRequest) (auth.AuthResponse, error)
	loginFn    func(ctx context.Context, email, password string) (string, string, auth.AuthResponse, error)
	refreshFn  func(ctx context.Context, refreshToken string) (string, string, auth.AuthResponse, error)
	getMeFn    func(ctx context.Context, userID string) (*auth.AuthResponse, error)
	loggedOut  []string
}

func (f *fakeService) Register(ctx context.Context, req auth.RegisterRequest) (auth.AuthResponse, error) {
	return f.registerFn(ctx, req)
}
func (f *fakeService) Login(ctx context.Context, email, password string) (string, string, auth.AuthResponse, error) {
	return f.loginFn(ctx, email, password)
}
func (f *fakeService) RefreshToken(ctx context.Context, refreshToken string) (string, string, auth.AuthResponse, error) {
	return f.refreshFn(ctx, refreshToken)
}
func (f *fakeService) GetMe(ctx context.Context, userID string) (*auth.AuthResponse, error) {
	return f.getMeFn(ctx, userID)
}
func (f *fakeService) Logout(ctx context.Context, userID string) {
	f.loggedOut = append(f.loggedOut, userID)
}

func TestHandler_Login(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("sets auth cookies", func(t *testing.T) {
		svc := &fakeService{
			loginFn: func(ctx context.Context, email, password string) (string, string, auth.AuthResponse, error) {
				return "access-123", "refresh-456", auth.AuthResponse{ID: uuid.New().String(), Email: email}, nil
			},
		}
		h := auth.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"ana@initech.test","password":"hunter22"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Login(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access-123")

		cookies := w.Result().Cookies()
		names := make([]string, 0, len(cookies))
		for _, ck := range cookies {
			names = append(names, ck.Name)
			assert.True(t, ck.HttpOnly)
		}
		assert.ElementsMatch(t, []string{"access_token", "refresh_token"}, names)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := &fakeService{
			loginFn: func(ctx context.Context, email, password string) (string, string, auth.AuthResponse, error) {
				return "", "", auth.AuthResponse{}, autherrors.ErrInvalidCredentials
			},
		}
		h := auth.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"ana@initech.test","password":"wrong"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Login(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})
}

func TestHandler_Logout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New().String()

	svc := &fakeService{}
	h := auth.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", userID)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

	h.Logout(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{userID}, svc.loggedOut, "logout must release the session server-side")

	for _, ck := range w.Result().Cookies() {
		assert.Less(t, ck.MaxAge, 0, "cookie %s should be expired", ck.Name)
	}
}

func TestHandler_Me(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ok", func(t *testing.T) {
		userID := uuid.New().String()
		svc := &fakeService{
			getMeFn: func(ctx context.Context, id string) (*auth.AuthResponse, error) {
				assert.Equal(t, userID, id)
				return &auth.AuthResponse{ID: id, FullName: "Ana Ortiz"}, nil
			},
		}
		h := auth.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("user_id", userID)
		c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

		h.Me(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Ana Ortiz")
	})

	t.Run("no identity", func(t *testing.T) {
		h := auth.NewHandler(&fakeService{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

		h.Me(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
