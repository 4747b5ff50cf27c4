package resources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/audit"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
)

const testPerPage = 10

type apiCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// fakeAPI is the REST backend: it records every call and answers through respond.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	respond func(w http.ResponseWriter, r *http.Request, body string)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: string(b)})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.respond(w, r, string(b))
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func (f *fakeAPI) CallsWith(method string) []apiCall {
	var out []apiCall
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeClearer struct {
	cleared int
}

func (f *fakeClearer) Clear(c *gin.Context) {
	f.cleared++
	session.Set(c, models.Session{})
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, e audit.Entry) {
	m.Called(ctx, e)
}

func (m *mockRecorder) Recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	args := m.Called(ctx, limit)
	entries, _ := args.Get(0).([]audit.Entry)
	return entries, args.Error(1)
}

func (m *mockRecorder) Enabled() bool {
	return m.Called().Bool(0)
}

type testEnv struct {
	api      *fakeAPI
	router   *gin.Engine
	clearer  *fakeClearer
	recorder *mockRecorder
	tracker  *Tracker
}

func listJSON(items ...string) string {
	return `{"data":{"data":[` + strings.Join(items, ",") + `],"current_page":1,"last_page":1,"total":` + itoa(int64(len(items))) + `}}`
}

func newTestEnv(t *testing.T, role models.Role, respond func(w http.ResponseWriter, r *http.Request, body string)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &fakeAPI{respond: respond}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	registry := NewRegistry()
	service := NewService(client, registry, NewOptionsCache(), testPerPage, zap.NewNop())

	env := &testEnv{api: api, clearer: &fakeClearer{}, recorder: &mockRecorder{}, tracker: NewTracker()}
	env.recorder.On("Record", mock.Anything, mock.Anything).Return()

	h := NewHandler(handlers.NewBaseHandler(zap.NewNop(), env.clearer), service, registry, env.tracker, env.recorder)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		session.Set(c, models.Session{Token: "tok-123", ID: 42, Name: "Ana", Role: role})
		c.Next()
	})
	h.Register(&r.RouterGroup)
	env.router = r
	return env
}

func (e *testEnv) do(method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil && method != http.MethodGet && method != http.MethodDelete {
		body = strings.NewReader(form.Encode())
	} else if form != nil {
		target += "?" + form.Encode()
	}
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func triggers(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := w.Header().Get("HX-Trigger")
	if raw == "" {
		return nil
	}
	out := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func toastOf(t *testing.T, w *httptest.ResponseRecorder) models.Toast {
	t.Helper()
	var toast models.Toast
	raw, ok := triggers(t, w)["toast"]
	require.True(t, ok, "expected a toast")
	require.NoError(t, json.Unmarshal(raw, &toast))
	return toast
}

func docOf(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return doc
}

func TestShowListRequestsFirstPage(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ string) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{"users":{"data":[{"id":1,"name":"Ana","email":"ana@x.io","is_active":1},{"id":2,"name":"Rui","email":"rui@x.io","is_active":0}],"current_page":1,"last_page":3,"total":25}}}`)
	})

	w := env.do(http.MethodGet, "/users", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	calls := env.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, "/admin/users", calls[0].Path)
	assert.Equal(t, "1", calls[0].Query.Get("page"))
	assert.Equal(t, "10", calls[0].Query.Get("per_page"))
	assert.Empty(t, calls[0].Query.Get("status"))

	doc := docOf(t, w)
	assert.Equal(t, 2, doc.Find("tr.record-row").Length())
	assert.Equal(t, "Ana", strings.TrimSpace(doc.Find(`tr[data-id="1"] td[data-col="name"]`).Text()))
	assert.Equal(t, "true", doc.Find(`tr[data-id="1"] button.toggle`).AttrOr("aria-checked", ""))
	assert.Equal(t, 1, doc.Find("#list-body").Length())
	assert.Equal(t, "1", doc.Find("#list-page").AttrOr("value", ""))
	assert.NotEmpty(t, doc.Find("#list-instance").AttrOr("value", ""))
	assert.Equal(t, 1, doc.Find("#sidebar").Length(), "full page outside htmx")
}

func TestRowsFilterAndSearchResetToFirstPage(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, listJSON(`{"id":4,"name":"Rock","is_active":true}`))
	})

	// filter tabs never send the page, so the cursor restarts
	w := env.do(http.MethodGet, "/categories/rows", url.Values{"filter": {"active"}, "search": {" ro "}, "instance": {"p1"}}, true)
	require.Equal(t, http.StatusOK, w.Code)

	calls := env.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "1", calls[0].Query.Get("page"))
	assert.Equal(t, "active", calls[0].Query.Get("status"))
	assert.Equal(t, "ro", calls[0].Query.Get("search"))

	doc := docOf(t, w)
	assert.Equal(t, 0, doc.Find("#sidebar").Length(), "fragment only")
	assert.Equal(t, "active", doc.Find("#list-filter").AttrOr("value", ""))
	assert.True(t, doc.Find(`.filter-tab[data-filter="active"]`).HasClass("active"))
}

func TestRowsUnknownFilterFallsBackToAll(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, listJSON())
	})

	w := env.do(http.MethodGet, "/categories/rows", url.Values{"filter": {"bogus"}, "page": {"3"}}, true)
	require.Equal(t, http.StatusOK, w.Code)

	calls := env.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "3", calls[0].Query.Get("page"))
	assert.Empty(t, calls[0].Query.Get("status"))
	assert.Equal(t, 1, docOf(t, w).Find("tr.empty-state").Length())
}

func TestRowsBackendErrorRendersEmptyState(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	w := env.do(http.MethodGet, "/tags/rows", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	doc := docOf(t, w)
	assert.Contains(t, doc.Find("tr.empty-state").Text(), "Could not load Tags")
	assert.Equal(t, 0, env.clearer.cleared)
}

func TestRowsSupersededFetchIsDropped(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ string) {
		if r.URL.Query().Get("page") == "1" {
			started <- struct{}{}
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		_, _ = io.WriteString(w, listJSON(`{"id":9,"name":"Jazz"}`))
	})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- env.do(http.MethodGet, "/categories/rows", url.Values{"page": {"1"}, "instance": {"p1"}}, true)
	}()
	<-started

	second := env.do(http.MethodGet, "/categories/rows", url.Values{"page": {"2"}, "instance": {"p1"}}, true)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, docOf(t, second).Find("tr.record-row").Length())

	w := <-first
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "none", w.Header().Get("HX-Reswap"))
	assert.Equal(t, 0, env.tracker.Len())
}

func TestCreateWithEmptyRequiredFieldMakesNoCall(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
		t.Error("backend must not be called")
	})

	w := env.do(http.MethodPost, "/categories", url.Values{"name": {"  "}, "is_active": {"0"}}, true)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "none", w.Header().Get("HX-Reswap"))
	assert.Empty(t, env.api.Calls())
	toast := toastOf(t, w)
	assert.Equal(t, models.ToastError, toast.Level)
	assert.Contains(t, toast.Message, "Name is required")
	_, closed := triggers(t, w)["closeModal"]
	assert.False(t, closed)
	env.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestCreateSendsOnePostAndRefreshesList(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ string) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"data":{"category":{"id":11,"name":"Rock","is_active":true}}}`)
			return
		}
		_, _ = io.WriteString(w, listJSON(`{"id":11,"name":"Rock","is_active":true}`))
	})

	w := env.do(http.MethodPost, "/categories", url.Values{
		"name": {"Rock"}, "is_active": {"0", "1"},
		"page": {"2"}, "filter": {"active"}, "instance": {"p1"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	posts := env.api.CallsWith(http.MethodPost)
	require.Len(t, posts, 1)
	assert.Equal(t, "/admin/categories", posts[0].Path)
	assert.JSONEq(t, `{"name":"Rock","is_active":true}`, posts[0].Body)

	gets := env.api.CallsWith(http.MethodGet)
	require.Len(t, gets, 1)
	assert.Equal(t, "2", gets[0].Query.Get("page"), "list state survives the mutation")
	assert.Equal(t, "active", gets[0].Query.Get("status"))

	tr := triggers(t, w)
	assert.Contains(t, tr, "closeModal")
	assert.Equal(t, models.ToastSuccess, toastOf(t, w).Level)

	doc := docOf(t, w)
	assert.Equal(t, "outerHTML", doc.Find("#list-body").AttrOr("hx-swap-oob", ""))

	env.recorder.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(e audit.Entry) bool {
		return e.Action == string(audit.ActionCreate) && e.Resource == "categories" && e.RecordID == "11" && e.ActorID == 42
	}))
}

func TestSaveBackendErrorKeepsModalOpen(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"The name has already been taken."}`)
	})

	w := env.do(http.MethodPut, "/categories/3", url.Values{"name": {"Rock"}}, true)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "none", w.Header().Get("HX-Reswap"))
	assert.Equal(t, "The name has already been taken.", toastOf(t, w).Message)
	assert.NotContains(t, triggers(t, w), "closeModal")
	require.Len(t, env.api.Calls(), 1)
	assert.Equal(t, "/admin/categories/3", env.api.Calls()[0].Path)
}

func TestDeleteSendsExactlyOneCall(t *testing.T) {
	t.Run("success closes modal", func(t *testing.T) {
		env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ string) {
			if r.Method == http.MethodDelete {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			_, _ = io.WriteString(w, listJSON())
		})

		w := env.do(http.MethodDelete, "/tags/5", url.Values{"page": {"1"}}, true)
		require.Equal(t, http.StatusOK, w.Code)

		deletes := env.api.CallsWith(http.MethodDelete)
		require.Len(t, deletes, 1)
		assert.Equal(t, "/admin/tags/5", deletes[0].Path)
		assert.Contains(t, triggers(t, w), "closeModal")
		assert.Equal(t, models.ToastSuccess, toastOf(t, w).Level)
		env.recorder.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("failure closes modal too", func(t *testing.T) {
		env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"Tag is in use"}`)
		})

		w := env.do(http.MethodDelete, "/tags/5", nil, true)

		require.Len(t, env.api.Calls(), 1)
		assert.Contains(t, triggers(t, w), "closeModal")
		toast := toastOf(t, w)
		assert.Equal(t, models.ToastError, toast.Level)
		assert.Equal(t, "Tag is in use", toast.Message)
		env.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}

func TestEditModalIsSeededFromRecord(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, `{"data":{"id":3,"name":"Rock","is_active":1}}`)
	})

	w := env.do(http.MethodGet, "/categories/3/edit", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	doc := docOf(t, w)
	assert.Equal(t, "Rock", doc.Find(`input[name="name"]`).AttrOr("value", ""))
	_, checked := doc.Find(`input[type="checkbox"][name="is_active"]`).Attr("checked")
	assert.True(t, checked)
	assert.Equal(t, "/categories/3", doc.Find("form.resource-form").AttrOr("hx-put", ""))
	assert.Contains(t, doc.Find(".modal-title").Text(), "Edit Category")
}

func TestToggleTwiceSendsOppositeValues(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ string) {
		if r.Method == http.MethodPut {
			_, _ = io.WriteString(w, `{"data":{}}`)
			return
		}
		_, _ = io.WriteString(w, listJSON(`{"id":7,"title":"Mixing vocals","is_published":true}`))
	})

	w := env.do(http.MethodPut, "/blog/7/toggle", url.Values{"current": {"0"}}, true)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPut, "/blog/7/toggle", url.Values{"current": {"1"}}, true)
	require.Equal(t, http.StatusOK, w.Code)

	puts := env.api.CallsWith(http.MethodPut)
	require.Len(t, puts, 2)
	assert.Equal(t, "/admin/blogs/7", puts[0].Path)
	assert.JSONEq(t, `{"is_published":true}`, puts[0].Body)
	assert.JSONEq(t, `{"is_published":false}`, puts[1].Body)

	doc := docOf(t, w)
	assert.Equal(t, 1, doc.Find("#list-body").Length())
	assert.Empty(t, doc.Find("#list-body").AttrOr("hx-swap-oob", ""))
}

func TestToggleUsesCustomPath(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ string) {
		_, _ = io.WriteString(w, listJSON())
	})

	env.do(http.MethodPut, "/users/12/toggle", url.Values{"current": {"1"}}, true)

	puts := env.api.CallsWith(http.MethodPut)
	require.Len(t, puts, 1)
	assert.Equal(t, "/admin/users/12/status", puts[0].Path)
	assert.JSONEq(t, `{"is_active":false}`, puts[0].Body)
}

func TestUnauthorizedClearsSessionAndRedirects(t *testing.T) {
	respond := func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Unauthenticated."}`)
	}

	t.Run("full page", func(t *testing.T) {
		env := newTestEnv(t, models.RoleAdmin, respond)
		w := env.do(http.MethodGet, "/users", nil, false)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.Equal(t, 1, env.clearer.cleared)
	})

	t.Run("htmx", func(t *testing.T) {
		env := newTestEnv(t, models.RoleAdmin, respond)
		w := env.do(http.MethodPut, "/blog/7/toggle", url.Values{"current": {"1"}}, true)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/login", w.Header().Get("HX-Redirect"))
		assert.Equal(t, 1, env.clearer.cleared)
	})
}

func TestRoutesAreGuardedByRole(t *testing.T) {
	env := newTestEnv(t, models.RoleEngineer, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, listJSON())
	})

	w := env.do(http.MethodGet, "/users", nil, false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = env.do(http.MethodGet, "/orders", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, env.api.Calls(), 1)
}

func TestReadOnlyResourcesHaveNoEditRoutes(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {
		_, _ = io.WriteString(w, listJSON())
	})

	w := env.do(http.MethodGet, "/contact-form/1/edit", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodGet, "/gallery", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code, "gallery has its own handler")
}

func TestPreviewSanitizes(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, _ *http.Request, _ string) {})

	w := env.do(http.MethodPost, "/preview", url.Values{
		"field": {"content"}, "kind": {"markdown"},
		"content": {"**bold** <script>alert(1)</script>"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>bold</strong>")
	assert.NotContains(t, w.Body.String(), "<script>")
}

func TestPreviewRequiresEditorRole(t *testing.T) {
	form := url.Values{"field": {"content"}, "kind": {"markdown"}, "content": {"**x**"}}

	tests := []struct {
		name     string
		role     models.Role
		status   int
		redirect string
	}{
		{"signed out", models.RoleUnauthenticated, http.StatusUnauthorized, "/login"},
		{"customer", models.RoleUser, http.StatusUnauthorized, "/"},
		{"engineer", models.RoleEngineer, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.role, func(w http.ResponseWriter, _ *http.Request, _ string) {})
			w := env.do(http.MethodPost, "/preview", form, true)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.redirect, w.Header().Get("HX-Redirect"))
			if tt.status != http.StatusOK {
				assert.NotContains(t, w.Body.String(), "<strong>")
			}
		})
	}
}

func TestShowDetail(t *testing.T) {
	env := newTestEnv(t, models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ string) {
		if strings.HasSuffix(r.URL.Path, "/404") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"blog":{"id":7,"title":"Mixing vocals","content":"<p>Hi<script>x()</script></p>","is_published":true}}}`)
	})

	w := env.do(http.MethodGet, "/blog/7", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	doc := docOf(t, w)
	assert.Equal(t, "Mixing vocals", strings.TrimSpace(doc.Find(`[data-field="title"] dd`).Text()))
	assert.Equal(t, 0, doc.Find("script").Length())

	w = env.do(http.MethodGet, "/blog/404", nil, true)
	assert.Equal(t, 1, docOf(t, w).Find(".not-found").Length())
}
