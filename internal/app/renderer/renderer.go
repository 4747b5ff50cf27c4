// Package renderer lets gin's c.HTML render templ components.
package renderer

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/observability/metrics"
)

var Default = &HTMLTemplRenderer{}

// HTMLTemplRenderer renders templ.Component values passed to c.HTML(status, "", component)
// and defers everything else to the fallback renderer.
type HTMLTemplRenderer struct {
	FallbackHTMLRenderer render.HTMLRender
}

func (r *HTMLTemplRenderer) Instance(s string, d any) render.Render {
	templData, ok := d.(templ.Component)
	if !ok {
		if r.FallbackHTMLRenderer != nil {
			return r.FallbackHTMLRenderer.Instance(s, d)
		}
	}
	return &Renderer{
		Ctx:       context.Background(),
		Status:    -1,
		Component: templData,
	}
}

// New builds a renderer bound to the request context.
func New(ctx context.Context, status int, component templ.Component) *Renderer {
	return &Renderer{
		Ctx:       ctx,
		Status:    status,
		Component: component,
	}
}

type Renderer struct {
	Ctx       context.Context
	Status    int
	Component templ.Component
}

func (t Renderer) Render(w http.ResponseWriter) error {
	t.WriteContentType(w)
	if t.Status != -1 {
		w.WriteHeader(t.Status)
	}
	if t.Component == nil {
		return nil
	}
	start := time.Now()
	err := t.Component.Render(t.Ctx, w)
	metrics.ObserveRender(t.Ctx, time.Since(start))
	return err
}

func (t Renderer) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// HTML writes component with status using the request's context, so components can
// read request-scoped values such as the CSRF token.
func HTML(c *gin.Context, status int, component templ.Component) {
	c.Render(status, New(c.Request.Context(), -1, component))
}
