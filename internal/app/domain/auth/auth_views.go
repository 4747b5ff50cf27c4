package auth

import (
	"github.com/a-h/templ"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

type LoginForm struct {
	Email     string
	Error     string
	CSRFToken string
}

func LoginPage(form LoginForm) templ.Component {
	return views.Func(func(w *views.Writer) {
		w.Raw(`<div class="mx-auto mt-24 max-w-sm rounded-lg bg-white p-8 shadow">`)
		w.Raw(`<h1 class="mb-6 text-2xl font-semibold">Mixdesk Admin</h1>`)
		w.Component(LoginFormView(form))
		w.Raw(`</div>`)
	})
}

func LoginFormView(form LoginForm) templ.Component {
	return views.Func(func(w *views.Writer) {
		w.Raw(`<form id="login-form" method="post" action="/login" hx-post="/login" class="space-y-4">`)
		w.Raw(`<input type="hidden" name="gorilla.csrf.Token" value="`, views.Esc(form.CSRFToken), `">`)
		if form.Error != "" {
			w.Component(views.ErrorBanner(form.Error))
		}
		w.Component(views.FormField(views.Field{Name: "email", Label: "Email", Kind: views.FieldEmail, Value: form.Email, Required: true}))
		w.Component(views.FormField(views.Field{Name: "password", Label: "Password", Kind: views.FieldPassword, Required: true}))
		w.Component(views.Button(views.ButtonProps{Label: "Sign in", Type: "submit", Class: "w-full justify-center"}))
		w.Raw(`</form>`)
	})
}
