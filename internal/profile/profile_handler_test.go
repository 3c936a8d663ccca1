package profile_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-timeoff/internal/profile"
	profileerrors "go-timeoff/internal/profile/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	getFn  func(ctx context.Context, companyID, userID string) (profile.ProfileResponse, error)
	saveFn func(ctx context.Context, companyID, userID string, req profile.SaveProfileRequest) (profile.ProfileResponse, error)
}

func (f *fakeService) Get(ctx context.Context, companyID, userID string) (profile.ProfileResponse, error) {
	return f.getFn(ctx, companyID, userID)
}

func (f *fakeService) Save(ctx context.Context, companyID, userID string, req profile.SaveProfileRequest) (profile.ProfileResponse, error) {
	return f.saveFn(ctx, companyID, userID, req)
}

func newTestContext(w *httptest.ResponseRecorder, companyID, userID string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", companyID)
	c.Set("user_id", userID)
	return c
}

func TestHandler_Me(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.NewString()
	userID := uuid.NewString()

	t.Run("returns own profile", func(t *testing.T) {
		svc := &fakeService{
			getFn: func(ctx context.Context, cid, uid string) (profile.ProfileResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, userID, uid)
				return profile.ProfileResponse{ID: uid, FullName: "Alice Smith"}, nil
			},
		}
		h := profile.NewHandler(svc)

		w := httptest.NewRecorder()
		c := newTestContext(w, companyID, userID)
		c.Request = httptest.NewRequest(http.MethodGet, "/profiles/me", nil)

		h.Me(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Alice Smith")
	})

	t.Run("missing profile is 404", func(t *testing.T) {
		svc := &fakeService{
			getFn: func(ctx context.Context, cid, uid string) (profile.ProfileResponse, error) {
				return profile.ProfileResponse{}, profileerrors.ErrProfileNotFound
			},
		}
		h := profile.NewHandler(svc)

		w := httptest.NewRecorder()
		c := newTestContext(w, companyID, userID)
		c.Request = httptest.NewRequest(http.MethodGet, "/profiles/me", nil)

		h.Me(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})
}

func TestHandler_Save(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.NewString()
	userID := uuid.NewString()

	t.Run("saves for the caller, never for someone else", func(t *testing.T) {
		svc := &fakeService{
			saveFn: func(ctx context.Context, cid, uid string, req profile.SaveProfileRequest) (profile.ProfileResponse, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, "employee", req.Role)
				return profile.ProfileResponse{ID: uid, FullName: req.FullName}, nil
			},
		}
		h := profile.NewHandler(svc)

		w := httptest.NewRecorder()
		c := newTestContext(w, companyID, userID)
		c.Request = httptest.NewRequest(http.MethodPut, "/profiles/me",
			strings.NewReader(`{"full_name":"Alice Smith","role":"employee","company_name":"Acme"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Save(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ok":true`)
	})

	t.Run("rejects an unknown role at binding", func(t *testing.T) {
		called := false
		svc := &fakeService{
			saveFn: func(ctx context.Context, cid, uid string, req profile.SaveProfileRequest) (profile.ProfileResponse, error) {
				called = true
				return profile.ProfileResponse{}, nil
			},
		}
		h := profile.NewHandler(svc)

		w := httptest.NewRecorder()
		c := newTestContext(w, companyID, userID)
		c.Request = httptest.NewRequest(http.MethodPut, "/profiles/me",
			strings.NewReader(`{"full_name":"Alice Smith","role":"admin","company_name":"Acme"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Save(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	})
}
