package resources

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/richtext"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

const (
	listBodyID   = "list-body"
	listTarget   = "#" + listBodyID
	listSync     = "#" + listBodyID + ":replace"
	stateInclude = "#list-page, #list-filter, #list-search, #list-instance"
)

// listState is the cursor of one list page as carried by the browser.
type listState struct {
	Page     int
	Filter   string
	Search   string
	Instance string
}

func (s listState) query(perPage int) models.ListQuery {
	return models.NewListQuery(s.Page, perPage, s.Filter, s.Search)
}

func (s listState) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("filter", s.Filter)
	if s.Search != "" {
		v.Set("search", s.Search)
	}
	v.Set("instance", s.Instance)
	return v
}

func rowsURL(def Definition, s listState) string {
	return "/" + def.Slug + "/rows?" + s.values().Encode()
}

type ListPageProps struct {
	Def       Definition
	State     listState
	Body      templ.Component
	CanManage bool
}

// ListPage is the resource screen: header, search box and the swappable list body.
func ListPage(p ListPageProps) templ.Component {
	return views.Func(func(w *views.Writer) {
		w.Raw(`<section id="resource-`, views.Esc(p.Def.Slug), `" class="resource-list space-y-4" data-resource="`, views.Esc(p.Def.Slug), `">`)
		w.Raw(`<div class="flex flex-wrap items-center justify-between gap-3">`)
		w.Raw(`<input type="hidden" id="list-instance" name="instance" value="`, views.Esc(p.State.Instance), `">`)
		if p.Def.Searchable {
			w.Raw(`<input type="search" id="list-search" name="search" value="`, views.Esc(p.State.Search), `" placeholder="Search `, views.Esc(strings.ToLower(p.Def.Title())), `…"`,
				` class="w-72 rounded-md border-gray-300 text-sm" hx-get="/`, views.Esc(p.Def.Slug), `/rows"`,
				` hx-trigger="input changed delay:300ms, search" hx-include="#list-filter, #list-instance"`,
				` hx-target="`, listTarget, `" hx-swap="outerHTML" hx-sync="`, listSync, `">`)
		} else {
			w.Raw(`<input type="hidden" id="list-search" name="search" value="">`)
		}
		if p.CanManage && p.Def.CanCreate() {
			w.Component(views.Button(views.ButtonProps{
				Label: "New " + p.Def.Singular,
				Attrs: views.Attrs{"hx-get": "/" + p.Def.Slug + "/new", "hx-target": "#modal", "hx-swap": "innerHTML"},
			}))
		}
		w.Raw(`</div>`)
		w.Component(p.Body)
		w.Raw(`</section>`)
	})
}

type ListBodyProps struct {
	Def       Definition
	Page      models.Page
	State     listState
	CanManage bool
	Error     string
	OOB       bool
}

// ListBody is the part of the list page every fetch replaces: filters, rows, pagination
// and the hidden cursor inputs.
func ListBody(p ListBodyProps) templ.Component {
	return views.Func(func(w *views.Writer) {
		w.Raw(`<div id="`, listBodyID, `" class="space-y-3" data-page="`, strconv.Itoa(p.State.Page), `" data-filter="`, views.Esc(p.State.Filter), `"`)
		if p.OOB {
			w.Raw(` hx-swap-oob="outerHTML"`)
		}
		w.Raw(`>`)
		w.Raw(`<input type="hidden" id="list-page" name="page" value="`, strconv.Itoa(p.State.Page), `">`)
		w.Raw(`<input type="hidden" id="list-filter" name="filter" value="`, views.Esc(p.State.Filter), `">`)

		if len(p.Def.Filters) > 1 {
			w.Raw(`<div class="filters flex gap-2" role="tablist">`)
			for _, f := range p.Def.Filters {
				cls := "filter-tab rounded-full px-3 py-1 text-sm ring-1 ring-gray-200"
				if f == p.State.Filter {
					cls = "filter-tab active rounded-full bg-indigo-600 px-3 py-1 text-sm text-white"
				}
				w.Raw(`<button type="button" role="tab" class="`, cls, `" data-filter="`, views.Esc(f), `"`,
					` hx-get="/`, views.Esc(p.Def.Slug), `/rows?filter=`, views.Esc(url.QueryEscape(f)), `" hx-include="#list-search, #list-instance"`,
					` hx-target="`, listTarget, `" hx-swap="outerHTML" hx-sync="`, listSync, `">`)
				w.Text(filterLabel(f))
				w.Raw(`</button>`)
			}
			w.Raw(`</div>`)
		}

		headers := make([]string, 0, len(p.Def.Columns)+1)
		for _, col := range p.Def.Columns {
			headers = append(headers, col.Label)
		}
		headers = append(headers, "")

		rows := views.Func(func(w *views.Writer) {
			if p.Error != "" {
				w.Component(views.EmptyRow(len(headers), p.Error))
				return
			}
			if len(p.Page.Items) == 0 {
				w.Component(views.EmptyRow(len(headers), "No "+strings.ToLower(p.Def.Title())+" found."))
				return
			}
			for _, rec := range p.Page.Items {
				w.Component(Row(p.Def, rec, p.CanManage))
			}
		})
		w.Raw(`<div class="overflow-x-auto rounded-lg bg-white shadow">`)
		w.Component(views.Table("rows", headers, rows))
		w.Raw(`</div>`)

		w.Component(views.Pagination(views.PaginationProps{
			Page: p.Page,
			HrefFor: func(n int) string {
				s := p.State
				s.Page = n
				return rowsURL(p.Def, s)
			},
			Target: listTarget,
			Sync:   listSync,
		}))
		w.Raw(`</div>`)
	})
}

// Row renders one record.
func Row(def Definition, rec models.Record, canManage bool) templ.Component {
	return views.Func(func(w *views.Writer) {
		id := rec.ID()
		w.Raw(`<tr class="record-row" data-id="`, views.Esc(id), `">`)
		for _, col := range def.Columns {
			w.Raw(`<td class="px-3 py-2" data-col="`, views.Esc(col.Key), `">`)
			w.Component(cell(def, col, rec, canManage))
			w.Raw(`</td>`)
		}
		w.Raw(`<td class="actions whitespace-nowrap px-3 py-2 text-right">`)
		w.Raw(`<a href="/`, views.Esc(def.Slug), `/`, views.Esc(id), `" class="action-view text-sm text-gray-600 hover:underline">View</a>`)
		if canManage && def.CanEdit() {
			w.Raw(` <button type="button" class="action-edit text-sm text-indigo-600 hover:underline" hx-get="/`, views.Esc(def.Slug), `/`, views.Esc(id),
				`/edit" hx-target="#modal" hx-swap="innerHTML">Edit</button>`)
		}
		if canManage {
			w.Raw(` <button type="button" class="action-delete text-sm text-red-600 hover:underline" hx-get="/`, views.Esc(def.Slug), `/`, views.Esc(id),
				`/delete" hx-target="#modal" hx-swap="innerHTML">Delete</button>`)
		}
		w.Raw(`</td></tr>`)
	})
}

func cell(def Definition, col Column, rec models.Record, canManage bool) templ.Component {
	value := rec.String(col.Key)
	switch col.Kind {
	case ColumnToggle:
		return toggleSwitch(def, col, rec, canManage)
	case ColumnStatus:
		if value == "" {
			return nil
		}
		return views.StatusBadge(value)
	case ColumnImage:
		if value == "" {
			return nil
		}
		return templ.Raw(`<img src="` + views.URL(value) + `" alt="" class="h-10 w-10 rounded object-cover" loading="lazy">`)
	case ColumnAudio:
		if value == "" {
			return nil
		}
		return templ.Raw(`<audio controls preload="none" src="` + views.URL(value) + `"></audio>`)
	case ColumnDate:
		return views.Text(formatDate(value))
	case ColumnLink:
		return templ.Raw(`<a href="/` + views.Esc(def.Slug) + `/` + views.Esc(rec.ID()) + `" class="font-medium text-indigo-600 hover:underline">` + views.Esc(value) + `</a>`)
	default:
		return views.Text(value)
	}
}

func toggleSwitch(def Definition, col Column, rec models.Record, canManage bool) templ.Component {
	on := rec.Bool(col.Key)
	return views.Func(func(w *views.Writer) {
		state, label := "off", "No"
		if on {
			state, label = "on", "Yes"
		}
		if !canManage || def.Toggle == nil || def.Toggle.Field != col.Key {
			w.Component(views.Badge(label, map[bool]views.BadgeVariant{true: views.BadgeGreen, false: views.BadgeGray}[on], ""))
			return
		}
		current := "0"
		if on {
			current = "1"
		}
		vals, _ := json.Marshal(map[string]string{"current": current})
		w.Raw(`<button type="button" role="switch" aria-checked="`, strconv.FormatBool(on), `" class="toggle `, state,
			` relative inline-flex h-6 w-11 items-center rounded-full" data-field="`, views.Esc(col.Key), `"`,
			` hx-put="/`, views.Esc(def.Slug), `/`, views.Esc(rec.ID()), `/toggle" hx-vals="`, views.Esc(string(vals)), `"`,
			` hx-include="`, stateInclude, `" hx-target="`, listTarget, `" hx-swap="outerHTML" hx-sync="`, listSync, `">`)
		w.Raw(`<span class="sr-only">`)
		w.Text(label)
		w.Raw(`</span></button>`)
	})
}

type FormModalProps struct {
	Def     Definition
	Record  models.Record
	Editing bool
	Options map[string][]views.Option
}

// FormModal is the create/edit modal, seeded from Record (nil when creating).
func FormModal(p FormModalProps) templ.Component {
	title := "New " + p.Def.Singular
	action := views.Attrs{"hx-post": "/" + p.Def.Slug}
	if p.Editing {
		title = "Edit " + p.Def.Singular
		action = views.Attrs{"hx-put": "/" + p.Def.Slug + "/" + p.Record.ID()}
	}
	action["hx-target"] = "#modal"
	action["hx-swap"] = "innerHTML"
	action["hx-include"] = stateInclude
	if p.Def.hasFileField() {
		action["hx-encoding"] = "multipart/form-data"
	}

	body := views.Func(func(w *views.Writer) {
		w.Raw(`<form class="resource-form" data-resource="`, views.Esc(p.Def.Slug), `"`, action.String(), `>`)
		for _, spec := range p.Def.FormFields(p.Editing) {
			w.Component(views.FormField(seedField(spec, p.Record, p.Options[spec.Name], p.Editing)))
		}
		w.Raw(`<div class="mt-6 flex justify-end gap-2">`)
		w.Component(views.Button(views.ButtonProps{Label: "Cancel", Variant: views.ButtonSecondary, Attrs: views.Attrs{"data-close-modal": ""}}))
		w.Component(views.Button(views.ButtonProps{Label: "Save", Type: "submit"}))
		w.Raw(`</div></form>`)
	})
	return views.Modal(views.ModalProps{Title: titleCaser.String(title), Body: body, Wide: len(p.Def.Fields) > 4})
}

// seedField pre-fills an input from the server values of rec.
func seedField(spec FieldSpec, rec models.Record, options []views.Option, editing bool) views.Field {
	f := views.Field{
		Name:     spec.Name,
		Label:    spec.Label,
		Kind:     spec.Kind,
		Required: spec.Required && !(editing && spec.Kind == views.FieldFile),
		Options:  options,
		Accept:   spec.Accept,
	}
	if f.Options == nil {
		f.Options = spec.Options
	}
	if rec == nil {
		return f
	}
	switch spec.Kind {
	case views.FieldCheckbox:
		f.Checked = rec.Bool(spec.Name)
	case views.FieldPassword:
	case views.FieldFile:
		f.Value = rec.String(spec.Name + "_url")
	case views.FieldSelect:
		f.Value = rec.String(spec.Name)
		if f.Value == "" && strings.HasSuffix(spec.Name, "_id") {
			f.Value = rec.String(strings.TrimSuffix(spec.Name, "_id") + ".id")
		}
	case views.FieldDate:
		f.Value = formatDate(rec.String(spec.Name))
	default:
		f.Value = rec.String(spec.Name)
	}
	return f
}

// DeleteModal asks for confirmation before the single DELETE call.
func DeleteModal(def Definition, rec models.Record) templ.Component {
	label := recordLabel(rec)
	body := views.Func(func(w *views.Writer) {
		w.Raw(`<p class="text-sm text-gray-700">Delete `)
		w.Text(def.Singular)
		if label != "" {
			w.Raw(` <strong>`)
			w.Text(label)
			w.Raw(`</strong>`)
		}
		w.Raw(`? This cannot be undone.</p>`)
		w.Raw(`<form class="delete-form mt-6 flex justify-end gap-2" hx-delete="/`, views.Esc(def.Slug), `/`, views.Esc(rec.ID()),
			`" hx-target="#modal" hx-swap="innerHTML" hx-include="`, stateInclude, `">`)
		w.Component(views.Button(views.ButtonProps{Label: "Cancel", Variant: views.ButtonSecondary, Attrs: views.Attrs{"data-close-modal": ""}}))
		w.Component(views.Button(views.ButtonProps{Label: "Delete", Variant: views.ButtonDanger, Type: "submit"}))
		w.Raw(`</form>`)
	})
	return views.Modal(views.ModalProps{Title: "Delete " + def.Singular, Body: body})
}

// DetailPage is the read-only view of a record.
func DetailPage(def Definition, rec models.Record) templ.Component {
	return views.Func(func(w *views.Writer) {
		w.Raw(`<article class="record-detail rounded-lg bg-white p-6 shadow" data-id="`, views.Esc(rec.ID()), `"><dl class="divide-y divide-gray-100">`)
		for _, f := range def.detailFields() {
			if f.Kind == views.FieldPassword || f.Kind == views.FieldFile {
				continue
			}
			value := rec.String(f.Name)
			w.Raw(`<div class="grid grid-cols-3 gap-4 py-3" data-field="`, views.Esc(f.Name), `"><dt class="text-sm font-medium text-gray-500">`)
			w.Text(f.Label)
			w.Raw(`</dt><dd class="col-span-2 text-sm">`)
			switch f.Kind {
			case views.FieldRichText:
				w.Raw(`<div class="prose">`)
				w.Component(richtext.Component(richtext.KindHTML, value))
				w.Raw(`</div>`)
			case views.FieldMarkdown:
				w.Raw(`<div class="prose">`)
				w.Component(richtext.Component(richtext.KindMarkdown, value))
				w.Raw(`</div>`)
			case views.FieldTextarea:
				w.Raw(`<p class="whitespace-pre-line">`)
				w.Text(value)
				w.Raw(`</p>`)
			case views.FieldCheckbox:
				w.Component(views.Badge(map[bool]string{true: "Yes", false: "No"}[rec.Bool(f.Name)], views.BadgeGray, ""))
			default:
				if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
					w.Raw(`<a href="`, views.URL(value), `" class="text-indigo-600 hover:underline" target="_blank" rel="noopener">`)
					w.Text(value)
					w.Raw(`</a>`)
				} else {
					w.Text(value)
				}
			}
			w.Raw(`</dd></div>`)
		}
		w.Raw(`</dl><a href="/`, views.Esc(def.Slug), `" class="mt-6 inline-block text-sm text-indigo-600 hover:underline">Back to `)
		w.Text(strings.ToLower(def.Title()))
		w.Raw(`</a></article>`)
	})
}

// PreviewFragment is the sanitized rendering of a rich-text or markdown input.
func PreviewFragment(html string) templ.Component {
	return templ.Raw(`<div class="preview prose">` + html + `</div>`)
}

func recordLabel(rec models.Record) string {
	for _, key := range []string{"name", "title", "code", "email", "order_number", "file_name"} {
		if v := rec.String(key); v != "" {
			return v
		}
	}
	return ""
}

func filterLabel(f string) string {
	return titleCaser.String(f)
}

func formatDate(v string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return v
}
