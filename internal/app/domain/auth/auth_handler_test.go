package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Login(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *mockService) Logout(ctx context.Context, sess models.Session) error {
	return m.Called(ctx, sess).Error(0)
}

type memorySessions struct {
	saved   []models.Session
	cleared int
}

func (s *memorySessions) Save(c *gin.Context, sess models.Session) error {
	s.saved = append(s.saved, sess)
	session.Set(c, sess)
	return nil
}

func (s *memorySessions) Clear(c *gin.Context) {
	s.cleared++
	session.Set(c, models.Session{})
}

func newAuthRouter(svc Service, store *memorySessions, current models.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(handlers.NewBaseHandler(zap.NewNop(), store), svc, store)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		session.Set(c, current)
		c.Next()
	})
	r.GET("/login", h.ShowLogin)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	return r
}

func postForm(r http.Handler, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginStoresSessionAndRedirectsHome(t *testing.T) {
	admin := models.Session{Token: "jwt", ID: 1, Name: "Ana", Role: models.RoleAdmin}
	svc := &mockService{}
	svc.On("Login", mock.Anything, models.LoginRequest{Email: "ana@mixdesk.io", Password: "pw"}).Return(admin, nil)
	store := &memorySessions{}

	w := postForm(newAuthRouter(svc, store, models.Session{}), "/login", url.Values{"email": {"ana@mixdesk.io"}, "password": {"pw"}}, true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("HX-Redirect"))
	require.Len(t, store.saved, 1)
	assert.Equal(t, models.RoleAdmin, store.saved[0].Role)
}

func TestLoginRedirectsEngineerToOrders(t *testing.T) {
	svc := &mockService{}
	svc.On("Login", mock.Anything, mock.Anything).Return(models.Session{Token: "jwt", ID: 5, Role: models.RoleEngineer}, nil)

	w := postForm(newAuthRouter(svc, &memorySessions{}, models.Session{}), "/login", url.Values{"email": {"e@mixdesk.io"}, "password": {"pw"}}, false)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/orders", w.Header().Get("Location"))
}

func TestLoginValidationMakesNoCall(t *testing.T) {
	svc := &mockService{}
	store := &memorySessions{}

	w := postForm(newAuthRouter(svc, store, models.Session{}), "/login", url.Values{"email": {"ana"}, "password": {""}}, true)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "#login-form", w.Header().Get("HX-Retarget"))
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	banner := doc.Find(".error-banner").Text()
	assert.Contains(t, banner, "Password is required")
	assert.Equal(t, "ana", doc.Find(`input[name="email"]`).AttrOr("value", ""))
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	assert.Empty(t, store.saved)
}

func TestLoginRejected(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"bad credentials", models.ErrUnauthenticated, http.StatusUnauthorized, "Invalid email or password."},
		{"no console role", models.ErrForbidden, http.StatusForbidden, "cannot use the console"},
		{"backend down", errors.New("dial tcp: refused"), http.StatusBadGateway, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("Login", mock.Anything, mock.Anything).Return(models.Session{}, tt.err)
			store := &memorySessions{}

			w := postForm(newAuthRouter(svc, store, models.Session{}), "/login", url.Values{"email": {"a@b.io"}, "password": {"pw"}}, false)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.msg)
			assert.Empty(t, store.saved)
		})
	}
}

func TestShowLogin(t *testing.T) {
	t.Run("signed out", func(t *testing.T) {
		w := httptest.NewRecorder()
		newAuthRouter(&mockService{}, &memorySessions{}, models.Session{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		doc, err := goquery.NewDocumentFromReader(w.Body)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Find("form#login-form").Length())
		assert.Equal(t, 0, doc.Find("#sidebar").Length())
	})

	t.Run("signed in", func(t *testing.T) {
		w := httptest.NewRecorder()
		current := models.Session{Token: "jwt", ID: 3, Role: models.RoleUser}
		newAuthRouter(&mockService{}, &memorySessions{}, current).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/chat", w.Header().Get("Location"))
	})
}

func TestLogoutClearsSessionEvenWhenBackendFails(t *testing.T) {
	current := models.Session{Token: "jwt", ID: 3, Role: models.RoleAdmin}
	svc := &mockService{}
	svc.On("Logout", mock.Anything, current).Return(errors.New("timeout"))
	store := &memorySessions{}

	w := postForm(newAuthRouter(svc, store, current), "/logout", url.Values{}, false)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, 1, store.cleared)
	svc.AssertExpectations(t)
}
