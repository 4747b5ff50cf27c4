package session

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
)

func newTestRouter(store *Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(config.SessionConfig{Secret: "test-secret-test-secret-test-sec"}))
	r.POST("/save", func(c *gin.Context) {
		err := store.Save(c, models.Session{Token: "opaque-token", ID: 7, Name: "Ana", Role: models.RoleAdmin})
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/load", func(c *gin.Context) {
		sess := store.Load(c)
		c.String(http.StatusOK, sess.Role.String())
	})
	r.POST("/clear", func(c *gin.Context) {
		store.Clear(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func cookiesFrom(w *httptest.ResponseRecorder) []*http.Cookie {
	return (&http.Response{Header: w.Header()}).Cookies()
}

func TestStoreRoundTrip(t *testing.T) {
	r := newTestRouter(NewStore(config.SessionConfig{}, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	cookies := cookiesFrom(w)
	names := map[string]string{}
	for _, ck := range cookies {
		names[ck.Name] = ck.Value
	}
	require.Contains(t, names, CookieName)
	// gin query-escapes cookie values
	mirror, err := url.QueryUnescape(names[MirrorCookie])
	require.NoError(t, err)
	assert.Equal(t, "7:admin", mirror)

	req := httptest.NewRequest(http.MethodGet, "/load", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "admin", w.Body.String())
}

func TestStoreLoadWithoutCookie(t *testing.T) {
	r := newTestRouter(NewStore(config.SessionConfig{}, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/load", nil))
	assert.Equal(t, "unauthenticated", w.Body.String())
}

func TestStoreClearExpiresBothCookies(t *testing.T) {
	r := newTestRouter(NewStore(config.SessionConfig{}, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
	saved := cookiesFrom(w)

	req := httptest.NewRequest(http.MethodPost, "/clear", nil)
	for _, ck := range saved {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	cleared := map[string]*http.Cookie{}
	for _, ck := range cookiesFrom(w) {
		cleared[ck.Name] = ck
	}
	require.Contains(t, cleared, MirrorCookie)
	require.Contains(t, cleared, CookieName)
	assert.Less(t, cleared[MirrorCookie].MaxAge, 0)
	assert.Less(t, cleared[CookieName].MaxAge, 0)
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "7",
			"exp": exp.Unix(),
		}).SignedString([]byte("whatever"))
		require.NoError(t, err)
		return tok
	}

	assert.True(t, Expired(sign(now.Add(-time.Minute)), now))
	assert.False(t, Expired(sign(now.Add(time.Hour)), now))
	assert.False(t, Expired("12|laravel-sanctum-opaque", now))
	assert.False(t, Expired("", now))
}
