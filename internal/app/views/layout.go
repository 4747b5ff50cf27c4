package views

import (
	"encoding/json"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

const (
	htmxScript   = "https://unpkg.com/htmx.org@2.0.4"
	htmxWSScript = "https://unpkg.com/htmx-ext-ws@2.0.2/ws.js"
)

// LayoutPage is the full document around a feature's content.
func LayoutPage(l models.LayoutTempl) templ.Component {
	return Func(func(h *Writer) {
		headers, _ := json.Marshal(map[string]string{"X-CSRF-Token": l.CSRFToken})

		h.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Raw(`<title>`)
		h.Text(l.Title)
		h.Raw(`</title>`)
		h.Raw(`<meta name="csrf-token" content="`, esc(l.CSRFToken), `">`)
		h.Raw(`<link rel="stylesheet" href="/assets/css/app.css">`)
		h.Raw(`<script src="`, htmxScript, `"></script><script src="`, htmxWSScript, `"></script>`)
		h.Raw(`<script src="/assets/js/app.js" defer></script>`)
		h.Raw(`</head><body class="bg-gray-50 text-gray-900" hx-headers="`, esc(string(headers)), `"`)
		if l.PageInstance != "" {
			h.Raw(` data-page-instance="`, esc(l.PageInstance), `"`)
		}
		h.Raw(`>`)

		h.Raw(`<div class="flex min-h-screen">`)
		if l.Session.Authenticated() {
			h.Component(Sidebar(l.Nav, l.ActiveNav))
		}
		h.Raw(`<div class="flex-1"><header class="flex items-center justify-between border-b bg-white px-6 py-3">`)
		h.Raw(`<h1 class="page-title text-lg font-semibold">`)
		h.Text(l.Title)
		h.Raw(`</h1>`)
		if l.Session.Authenticated() {
			h.Raw(`<div class="flex items-center gap-3 text-sm"><span class="current-user">`)
			h.Text(l.Session.Name)
			h.Raw(`</span>`)
			h.Component(Badge(l.Session.Role.String(), BadgeBlue, ""))
			h.Raw(`<form method="post" action="/logout">`)
			h.Component(HiddenInput("gorilla.csrf.Token", l.CSRFToken))
			h.Component(Button(ButtonProps{Label: "Log out", Variant: ButtonGhost, Type: "submit"}))
			h.Raw(`</form></div>`)
		}
		h.Raw(`</header><main id="content" class="p-6">`)
		h.Component(l.Content)
		h.Raw(`</main></div></div>`)

		h.Raw(`<div id="modal"></div>`)
		h.Raw(`<div id="toasts" class="fixed bottom-4 right-4 z-50 space-y-2" aria-live="polite"></div>`)
		h.Raw(`</body></html>`)
	})
}

// Sidebar renders the role's navigation. Items come from models.NavFor.
func Sidebar(nav models.Navigation, active string) templ.Component {
	return Func(func(h *Writer) {
		h.Raw(`<nav id="sidebar" class="w-60 shrink-0 border-r bg-white px-3 py-6"><p class="mb-6 px-3 text-xl font-bold">Mixdesk</p><ul class="space-y-1">`)
		for _, item := range nav.Items {
			cls := "nav-link block rounded-md px-3 py-2 text-sm text-gray-700 hover:bg-gray-100"
			if item.Name == active {
				cls = "nav-link active block rounded-md bg-indigo-50 px-3 py-2 text-sm font-semibold text-indigo-700"
			}
			h.Raw(`<li><a href="`, esc(item.URL), `" class="`, cls, `" data-icon="`, esc(item.Icon), `">`)
			h.Text(item.Name)
			h.Raw(`</a></li>`)
		}
		h.Raw(`</ul></nav>`)
	})
}

// NotFound is the body of the 404 page.
func NotFound() templ.Component {
	return Func(func(h *Writer) {
		h.Raw(`<section class="not-found py-24 text-center"><p class="text-5xl font-bold text-indigo-600">404</p>`)
		h.Raw(`<p class="mt-4 text-gray-600">The page you are looking for does not exist.</p>`)
		h.Raw(`<a href="/" class="mt-6 inline-block text-indigo-600 hover:underline">Back to the console</a></section>`)
	})
}

// ErrorBanner is an inline error message.
func ErrorBanner(message string) templ.Component {
	return Func(func(h *Writer) {
		h.Raw(`<div class="error-banner rounded-md bg-red-50 p-4 text-sm text-red-700" role="alert">`)
		h.Text(message)
		h.Raw(`</div>`)
	})
}
