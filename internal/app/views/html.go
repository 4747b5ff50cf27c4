// Package views holds the shared page shell and the building blocks every feature renders
// with: buttons, badges, tables, pagination, modals and form fields.
package views

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

var esc = templ.EscapeString[string]

// Attrs are extra HTML attributes. Values are escaped; an empty value renders a bare attribute.
type Attrs map[string]string

func (a Attrs) String() string {
	if len(a) == 0 {
		return ""
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(esc(k))
		if v := a[k]; v != "" {
			b.WriteString(`="`)
			b.WriteString(esc(v))
			b.WriteByte('"')
		}
	}
	return b.String()
}

// Text renders escaped text.
func Text(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, esc(s))
		return err
	})
}

// Group renders components one after the other, skipping nils.
func Group(components ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range components {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// Writer accumulates the first write error so component bodies stay linear.
type Writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func NewWriter(ctx context.Context, w io.Writer) *Writer {
	return &Writer{ctx: ctx, w: w}
}

func (h *Writer) Raw(parts ...string) {
	for _, p := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, p)
	}
}

func (h *Writer) Text(s string) {
	h.Raw(esc(s))
}

func (h *Writer) Component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

// Err is the first error hit while writing.
func (h *Writer) Err() error {
	return h.err
}

// Func adapts a body written against Writer into a component.
func Func(body func(h *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewWriter(ctx, w)
		body(h)
		return h.Err()
	})
}

// Esc is templ's HTML escaper, exported for feature packages building attributes.
func Esc(s string) string {
	return esc(s)
}

// URL escapes a backend-supplied link for an href or src attribute. templ's sanitizer
// replaces javascript: and other unsafe schemes with an inert placeholder.
func URL(raw string) string {
	return esc(string(templ.URL(raw)))
}
