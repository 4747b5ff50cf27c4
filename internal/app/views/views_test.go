package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestSidebarByRole(t *testing.T) {
	tests := []struct {
		role  models.Role
		links []string
	}{
		{models.RoleEngineer, []string{"Orders", "Uploads", "Chat"}},
		{models.RoleUser, []string{"Orders", "Chat"}},
		{models.RoleUnauthenticated, nil},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			doc := render(t, Sidebar(models.NavFor(tt.role), "Orders"))
			var got []string
			doc.Find("#sidebar a").Each(func(_ int, s *goquery.Selection) {
				got = append(got, s.Text())
			})
			assert.Equal(t, tt.links, got)
		})
	}

	doc := render(t, Sidebar(models.NavFor(models.RoleAdmin), "Users"))
	assert.Equal(t, "Users", doc.Find("#sidebar a.active").Text())
	for _, name := range []string{"Dashboard", "Users", "Engineers", "Services", "Labels", "Categories", "Tags",
		"Coupons", "Blog", "Gallery", "Samples", "News Letter", "Contact Form", "Uploads"} {
		found := doc.Find("#sidebar a").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Text() == name
		})
		assert.Equal(t, 1, found.Length(), name)
	}
}

func TestLayoutPageHidesSidebarWhenSignedOut(t *testing.T) {
	doc := render(t, LayoutPage(models.LayoutTempl{Title: "Sign in", Content: Text("form")}))
	assert.Equal(t, 0, doc.Find("#sidebar").Length())
	assert.Equal(t, 1, doc.Find("#modal").Length())
	assert.Equal(t, 1, doc.Find("#toasts").Length())

	doc = render(t, LayoutPage(models.LayoutTempl{
		Title:     "Users",
		Session:   models.Session{Token: "t", Name: "Ana", Role: models.RoleAdmin},
		Nav:       models.NavFor(models.RoleAdmin),
		CSRFToken: "tok<en>",
		Content:   Text("rows"),
	}))
	assert.Equal(t, 1, doc.Find("#sidebar").Length())
	assert.Equal(t, "Ana", doc.Find(".current-user").Text())
	hx, _ := doc.Find("body").Attr("hx-headers")
	assert.JSONEq(t, `{"X-CSRF-Token":"tok<en>"}`, hx)
}

func TestButtonClassOverrides(t *testing.T) {
	cls := ButtonClass(ButtonPrimary, "bg-emerald-600")
	assert.Contains(t, cls, "bg-emerald-600")
	assert.NotContains(t, cls, "bg-indigo-600")

	doc := render(t, Button(ButtonProps{Label: "Save", Type: "submit", Attrs: Attrs{"hx-post": "/users"}}))
	btn := doc.Find("button")
	assert.Equal(t, "Save", btn.Text())
	v, _ := btn.Attr("hx-post")
	assert.Equal(t, "/users", v)
}

func TestFormFieldSeedsValues(t *testing.T) {
	doc := render(t, Group(
		FormField(Field{Name: "name", Label: "Name", Kind: FieldText, Value: "Rock", Required: true}),
		FormField(Field{Name: "is_active", Label: "Active", Kind: FieldCheckbox, Checked: true}),
		FormField(Field{Name: "category_id", Label: "Category", Kind: FieldSelect, Value: "2",
			Options: []Option{{Value: "1", Label: "Mixing"}, {Value: "2", Label: "Mastering"}}}),
	))

	v, _ := doc.Find(`input[name="name"]`).Attr("value")
	assert.Equal(t, "Rock", v)
	_, required := doc.Find(`input[name="name"]`).Attr("required")
	assert.True(t, required)
	_, checked := doc.Find(`input[type="checkbox"][name="is_active"]`).Attr("checked")
	assert.True(t, checked)
	assert.Equal(t, "Mastering", doc.Find(`select[name="category_id"] option[selected]`).Text())
}

func TestPagination(t *testing.T) {
	href := func(p int) string { return "/users/rows?page=" + string(rune('0'+p)) }

	doc := render(t, Pagination(PaginationProps{Page: models.Page{CurrentPage: 1, TotalPages: 1}, HrefFor: href}))
	assert.Equal(t, 0, doc.Find("a.page-link").Length())

	doc = render(t, Pagination(PaginationProps{Page: models.Page{CurrentPage: 2, TotalPages: 3}, HrefFor: href, Target: "#list"}))
	assert.Equal(t, "2", doc.Find("a.page-link.current").Text())
	prev := doc.Find(`a.page-link[data-page="1"]`).First()
	v, _ := prev.Attr("hx-get")
	assert.Equal(t, "/users/rows?page=1", v)
}

func TestPageWindow(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, pageWindow(1, 3, 2))
	assert.Equal(t, []int{1, 0, 8, 9, 10, 11, 12, 0, 20}, pageWindow(10, 20, 2))
}

func TestModal(t *testing.T) {
	doc := render(t, Modal(ModalProps{Title: "Delete user", Body: Text("Sure?")}))
	assert.Equal(t, "Delete user", doc.Find(".modal-title").Text())
	assert.Equal(t, "Sure?", doc.Find(".modal-body").Text())
	assert.Equal(t, 1, doc.Find("[data-close-modal]").Length())
}

func TestTextIsEscaped(t *testing.T) {
	c := Func(func(h *Writer) {
		h.Raw(`<p title="`, Esc(`"quoted" & <b>`), `">`)
		h.Text("<script>alert(1)</script>")
		h.Raw(`</p>`)
	})
	doc := render(t, c)
	p := doc.Find("p")
	assert.Equal(t, `"quoted" & <b>`, p.AttrOr("title", ""))
	assert.Equal(t, "<script>alert(1)</script>", p.Text())
	assert.Equal(t, 0, doc.Find("script").Length())
}

func TestURLRejectsUnsafeSchemes(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.png?x=1&amp;y=2", URL("https://cdn.example.com/a.png?x=1&y=2"))
	assert.Equal(t, "/storage/mix.wav", URL("/storage/mix.wav"))
	assert.NotContains(t, URL("javascript:alert(1)"), "javascript")
	assert.NotContains(t, URL("JaVaScRiPt:alert(1)"), "alert")
}
