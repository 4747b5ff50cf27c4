package audit

import (
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

type Handler struct {
	*handlers.BaseHandler
	recorder Recorder
}

func NewHandler(base *handlers.BaseHandler, recorder Recorder) *Handler {
	return &Handler{BaseHandler: base, recorder: recorder}
}

// ShowActivity lists the latest mutations.
func (h *Handler) ShowActivity(c *gin.Context) {
	if !h.recorder.Enabled() {
		h.RenderPage(c, "Activity", "Activity", ActivityPage(nil, "Activity logging is disabled."))
		return
	}

	entries, err := h.recorder.Recent(c.Request.Context(), defaultLimit)
	if err != nil {
		h.Logger.Error("Failed to load activity", zap.Error(err))
		h.RenderPage(c, "Activity", "Activity", ActivityPage(nil, "Activity could not be loaded."))
		return
	}
	h.RenderPage(c, "Activity", "Activity", ActivityPage(entries, "No activity yet."))
}

func ActivityPage(entries []Entry, emptyMessage string) templ.Component {
	headers := []string{"When", "Who", "Action", "Resource", "Record"}
	rows := views.Func(func(w *views.Writer) {
		if len(entries) == 0 {
			w.Component(views.EmptyRow(len(headers), emptyMessage))
			return
		}
		for _, e := range entries {
			w.Raw(`<tr class="activity-row"><td class="px-3 py-2">`)
			w.Text(e.CreatedAt.Format("2006-01-02 15:04"))
			w.Raw(`</td><td class="px-3 py-2">`)
			w.Text(e.ActorName)
			w.Raw(`</td><td class="px-3 py-2">`)
			w.Component(views.Badge(e.Action, actionBadge(e.Action), ""))
			w.Raw(`</td><td class="px-3 py-2">`)
			w.Text(e.Resource)
			w.Raw(`</td><td class="px-3 py-2">`)
			w.Text(e.RecordID)
			w.Raw(`</td></tr>`)
		}
	})
	return views.Func(func(w *views.Writer) {
		w.Raw(`<section id="activity" class="overflow-x-auto rounded-lg bg-white shadow">`)
		w.Component(views.Table("activity-rows", headers, rows))
		w.Raw(`</section>`)
	})
}

func actionBadge(action string) views.BadgeVariant {
	switch Action(action) {
	case ActionCreate, ActionUpload:
		return views.BadgeGreen
	case ActionDelete:
		return views.BadgeRed
	case ActionToggle:
		return views.BadgeYellow
	default:
		return views.BadgeBlue
	}
}
