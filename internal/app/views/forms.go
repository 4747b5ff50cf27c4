package views

import (
	"github.com/a-h/templ"
)

type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldEmail    FieldKind = "email"
	FieldPassword FieldKind = "password"
	FieldNumber   FieldKind = "number"
	FieldDate     FieldKind = "date"
	FieldTextarea FieldKind = "textarea"
	FieldRichText FieldKind = "richtext"
	FieldMarkdown FieldKind = "markdown"
	FieldSelect   FieldKind = "select"
	FieldCheckbox FieldKind = "checkbox"
	FieldFile     FieldKind = "file"
)

type Option struct {
	Value string
	Label string
}

// Field is one input of a modal form, already seeded with its current value.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Value    string
	Checked  bool
	Options  []Option
	Required bool
	Accept   string
	Help     string
}

const inputClass = "mt-1 block w-full rounded-md border-gray-300 shadow-sm focus:border-indigo-500 focus:ring-indigo-500 sm:text-sm"

func FormField(f Field) templ.Component {
	return Func(func(h *Writer) {
		id := "field-" + f.Name
		required := ""
		if f.Required {
			required = " required"
		}

		if f.Kind == FieldCheckbox {
			h.Raw(`<div class="form-field flex items-center gap-2" data-field="`, esc(f.Name), `">`)
			// unchecked boxes are not submitted, the hidden input makes "false" explicit
			h.Raw(`<input type="hidden" name="`, esc(f.Name), `" value="0">`)
			h.Raw(`<input type="checkbox" id="`, esc(id), `" name="`, esc(f.Name), `" value="1" class="h-4 w-4 rounded border-gray-300 text-indigo-600"`)
			if f.Checked {
				h.Raw(` checked`)
			}
			h.Raw(`><label for="`, esc(id), `" class="text-sm">`)
			h.Text(f.Label)
			h.Raw(`</label></div>`)
			return
		}

		h.Raw(`<div class="form-field mb-4" data-field="`, esc(f.Name), `"><label for="`, esc(id), `" class="block text-sm font-medium text-gray-700">`)
		h.Text(f.Label)
		if f.Required {
			h.Raw(`<span class="text-red-500"> *</span>`)
		}
		h.Raw(`</label>`)

		switch f.Kind {
		case FieldTextarea, FieldRichText, FieldMarkdown:
			h.Raw(`<textarea id="`, esc(id), `" name="`, esc(f.Name), `" rows="6" class="`, inputClass, `" data-kind="`, esc(string(f.Kind)), `"`, required, `>`)
			h.Text(f.Value)
			h.Raw(`</textarea>`)
			if f.Kind != FieldTextarea {
				h.Raw(`<button type="button" class="mt-1 text-xs text-indigo-600" hx-post="/preview" hx-include="#`, esc(id),
					`" hx-vals='{"field":"`, esc(f.Name), `","kind":"`, esc(string(f.Kind)), `"}' hx-target="#preview-`, esc(f.Name), `">Preview</button>`)
				h.Raw(`<div id="preview-`, esc(f.Name), `" class="prose mt-2"></div>`)
			}
		case FieldSelect:
			h.Raw(`<select id="`, esc(id), `" name="`, esc(f.Name), `" class="`, inputClass, `"`, required, `>`)
			h.Raw(`<option value="">Select…</option>`)
			for _, o := range f.Options {
				h.Raw(`<option value="`, esc(o.Value), `"`)
				if o.Value == f.Value {
					h.Raw(` selected`)
				}
				h.Raw(`>`)
				h.Text(o.Label)
				h.Raw(`</option>`)
			}
			h.Raw(`</select>`)
		case FieldFile:
			h.Raw(`<input type="file" id="`, esc(id), `" name="`, esc(f.Name), `" class="mt-1 block w-full text-sm"`)
			if f.Accept != "" {
				h.Raw(` accept="`, esc(f.Accept), `"`)
			}
			h.Raw(required, `>`)
			if f.Value != "" {
				h.Raw(`<p class="current-file mt-1 text-xs text-gray-500">Current: `)
				h.Text(f.Value)
				h.Raw(`</p>`)
			}
		default:
			kind := string(f.Kind)
			if kind == "" {
				kind = string(FieldText)
			}
			h.Raw(`<input type="`, esc(kind), `" id="`, esc(id), `" name="`, esc(f.Name), `" value="`, esc(f.Value), `" class="`, inputClass, `"`)
			if f.Kind == FieldNumber {
				h.Raw(` step="any"`)
			}
			h.Raw(required, `>`)
		}

		if f.Help != "" {
			h.Raw(`<p class="mt-1 text-xs text-gray-500">`)
			h.Text(f.Help)
			h.Raw(`</p>`)
		}
		h.Raw(`</div>`)
	})
}

// HiddenInput renders a hidden field.
func HiddenInput(name, value string) templ.Component {
	return Func(func(h *Writer) {
		h.Raw(`<input type="hidden" name="`, esc(name), `" value="`, esc(value), `">`)
	})
}
