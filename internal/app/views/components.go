package views

import (
	"strconv"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

type ButtonVariant string

const (
	ButtonPrimary   ButtonVariant = "primary"
	ButtonSecondary ButtonVariant = "secondary"
	ButtonDanger    ButtonVariant = "danger"
	ButtonGhost     ButtonVariant = "ghost"
)

var buttonBase = "inline-flex items-center gap-2 rounded-md px-3 py-2 text-sm font-medium transition disabled:opacity-50 disabled:pointer-events-none"

var buttonVariants = map[ButtonVariant]string{
	ButtonPrimary:   "bg-indigo-600 text-white hover:bg-indigo-500",
	ButtonSecondary: "bg-white text-gray-900 ring-1 ring-gray-300 hover:bg-gray-50",
	ButtonDanger:    "bg-red-600 text-white hover:bg-red-500",
	ButtonGhost:     "bg-transparent text-gray-700 hover:bg-gray-100",
}

type ButtonProps struct {
	Label    string
	Variant  ButtonVariant
	Type     string
	Class    string
	Disabled bool
	Attrs    Attrs
}

// ButtonClass merges the variant classes with caller overrides, later classes winning.
func ButtonClass(variant ButtonVariant, extra string) string {
	v, ok := buttonVariants[variant]
	if !ok {
		v = buttonVariants[ButtonPrimary]
	}
	return twmerge.Merge(buttonBase, v, extra)
}

func Button(p ButtonProps) templ.Component {
	return Func(func(h *Writer) {
		typ := p.Type
		if typ == "" {
			typ = "button"
		}
		h.Raw(`<button type="`, esc(typ), `" class="`, esc(ButtonClass(p.Variant, p.Class)), `"`, p.Attrs.String())
		if p.Disabled {
			h.Raw(` disabled`)
		}
		h.Raw(`>`)
		h.Text(p.Label)
		h.Raw(`</button>`)
	})
}

type BadgeVariant string

const (
	BadgeGreen  BadgeVariant = "green"
	BadgeGray   BadgeVariant = "gray"
	BadgeYellow BadgeVariant = "yellow"
	BadgeRed    BadgeVariant = "red"
	BadgeBlue   BadgeVariant = "blue"
)

var badgeVariants = map[BadgeVariant]string{
	BadgeGreen:  "bg-green-50 text-green-700 ring-green-600/20",
	BadgeGray:   "bg-gray-50 text-gray-600 ring-gray-500/10",
	BadgeYellow: "bg-yellow-50 text-yellow-800 ring-yellow-600/20",
	BadgeRed:    "bg-red-50 text-red-700 ring-red-600/10",
	BadgeBlue:   "bg-blue-50 text-blue-700 ring-blue-700/10",
}

func Badge(label string, variant BadgeVariant, class string) templ.Component {
	return Func(func(h *Writer) {
		cls := twmerge.Merge("inline-flex items-center rounded-md px-2 py-1 text-xs font-medium ring-1 ring-inset", badgeVariants[variant], class)
		h.Raw(`<span class="`, esc(cls), `">`)
		h.Text(label)
		h.Raw(`</span>`)
	})
}

// StatusBadge maps the common status words the backend uses onto badge colours.
func StatusBadge(status string) templ.Component {
	variant := BadgeGray
	switch status {
	case "active", "published", "completed", "subscribed", "read":
		variant = BadgeGreen
	case "pending", "draft", "unread":
		variant = BadgeYellow
	case "processing":
		variant = BadgeBlue
	case "cancelled", "inactive", "expired", "unsubscribed":
		variant = BadgeRed
	}
	return Badge(status, variant, "")
}

type ModalProps struct {
	Title string
	Body  templ.Component
	Wide  bool
}

// Modal is swapped into #modal; the close button and the closeModal event empty it again.
func Modal(p ModalProps) templ.Component {
	return Func(func(h *Writer) {
		width := "max-w-lg"
		if p.Wide {
			width = "max-w-3xl"
		}
		h.Raw(`<div class="modal-backdrop fixed inset-0 z-40 flex items-center justify-center bg-gray-900/50" data-modal>`)
		h.Raw(`<div class="`, esc(twmerge.Merge("modal w-full rounded-lg bg-white p-6 shadow-xl", width)), `" role="dialog" aria-modal="true">`)
		h.Raw(`<header class="mb-4 flex items-center justify-between"><h2 class="modal-title text-lg font-semibold">`)
		h.Text(p.Title)
		h.Raw(`</h2><button type="button" class="modal-close text-gray-400 hover:text-gray-600" data-close-modal aria-label="Close">&times;</button></header>`)
		h.Raw(`<div class="modal-body">`)
		h.Component(p.Body)
		h.Raw(`</div></div></div>`)
	})
}

// Table renders the shell of a data table; body supplies the <tr> rows.
func Table(id string, headers []string, body templ.Component) templ.Component {
	return Func(func(h *Writer) {
		h.Raw(`<table class="min-w-full divide-y divide-gray-200 text-sm"><thead><tr>`)
		for _, header := range headers {
			h.Raw(`<th scope="col" class="px-3 py-2 text-left font-semibold text-gray-900">`)
			h.Text(header)
			h.Raw(`</th>`)
		}
		h.Raw(`</tr></thead><tbody id="`, esc(id), `" class="divide-y divide-gray-100">`)
		h.Component(body)
		h.Raw(`</tbody></table>`)
	})
}

// EmptyRow is the single row shown when a list has no items or failed to load.
func EmptyRow(colspan int, message string) templ.Component {
	return Func(func(h *Writer) {
		h.Raw(`<tr class="empty-state"><td colspan="`, strconv.Itoa(colspan), `" class="px-3 py-8 text-center text-gray-500">`)
		h.Text(message)
		h.Raw(`</td></tr>`)
	})
}

type PaginationProps struct {
	Page    models.Page
	HrefFor func(page int) string
	Target  string
	Sync    string
}

// Pagination renders prev/next and a window of page numbers around the current page.
func Pagination(p PaginationProps) templ.Component {
	return Func(func(h *Writer) {
		if p.Page.TotalPages <= 1 {
			h.Raw(`<nav class="pagination" data-current="`, strconv.Itoa(p.Page.CurrentPage), `"></nav>`)
			return
		}
		link := func(page int, label string, enabled, current bool) {
			if !enabled {
				h.Raw(`<span class="page-link disabled px-2 text-gray-400">`)
				h.Text(label)
				h.Raw(`</span>`)
				return
			}
			cls := "page-link px-2 hover:underline"
			if current {
				cls = "page-link current px-2 font-semibold text-indigo-600"
			}
			h.Raw(`<a href="`, esc(p.HrefFor(page)), `" class="`, cls, `" hx-get="`, esc(p.HrefFor(page)),
				`" hx-target="`, esc(p.Target), `" hx-swap="outerHTML"`)
			if p.Sync != "" {
				h.Raw(` hx-sync="`, esc(p.Sync), `"`)
			}
			h.Raw(` data-page="`, strconv.Itoa(page), `">`)
			h.Text(label)
			h.Raw(`</a>`)
		}

		h.Raw(`<nav class="pagination mt-4 flex items-center gap-1" data-current="`, strconv.Itoa(p.Page.CurrentPage), `">`)
		link(p.Page.CurrentPage-1, "Previous", p.Page.HasPrev(), false)
		for _, n := range pageWindow(p.Page.CurrentPage, p.Page.TotalPages, 2) {
			if n == 0 {
				h.Raw(`<span class="px-1 text-gray-400">&hellip;</span>`)
				continue
			}
			link(n, strconv.Itoa(n), true, n == p.Page.CurrentPage)
		}
		link(p.Page.CurrentPage+1, "Next", p.Page.HasNext(), false)
		h.Raw(`</nav>`)
	})
}

// pageWindow returns 1, the pages within radius of current, and last, with 0 marking gaps.
func pageWindow(current, total, radius int) []int {
	var out []int
	last := 0
	for n := 1; n <= total; n++ {
		if n == 1 || n == total || (n >= current-radius && n <= current+radius) {
			if last != 0 && n-last > 1 {
				out = append(out, 0)
			}
			out = append(out, n)
			last = n
		}
	}
	return out
}

// Card is a dashboard tile.
func Card(title, value, href string) templ.Component {
	return Func(func(h *Writer) {
		h.Raw(`<a href="`, esc(href), `" class="card block rounded-lg bg-white p-5 shadow ring-1 ring-gray-200 hover:ring-indigo-300">`)
		h.Raw(`<p class="card-title text-sm text-gray-500">`)
		h.Text(title)
		h.Raw(`</p><p class="card-value mt-2 text-3xl font-semibold">`)
		h.Text(value)
		h.Raw(`</p></a>`)
	})
}
