package resources

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/audit"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/richtext"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

type Handler struct {
	*handlers.BaseHandler
	service  *Service
	registry *Registry
	tracker  *Tracker
	recorder audit.Recorder
}

func NewHandler(base *handlers.BaseHandler, service *Service, registry *Registry, tracker *Tracker, recorder audit.Recorder) *Handler {
	if tracker == nil {
		tracker = NewTracker()
	}
	if recorder == nil {
		recorder = audit.NewLogRecorder(base.Logger)
	}
	return &Handler{
		BaseHandler: base,
		service:     service,
		registry:    registry,
		tracker:     tracker,
		recorder:    recorder,
	}
}

// Register mounts the pages of every non-custom definition on rg. Each route is guarded
// by the roles of its definition.
func (h *Handler) Register(rg *gin.RouterGroup) {
	var editors []models.Role
	for _, def := range h.registry.All() {
		for _, role := range def.Managers() {
			if !slices.Contains(editors, role) {
				editors = append(editors, role)
			}
		}
		if def.Custom {
			continue
		}
		read := middleware.RequireRole(h.Logger, def.Roles...)
		manage := middleware.RequireRole(h.Logger, def.Managers()...)
		base := "/" + def.Slug

		rg.GET(base, read, h.ShowList(def))
		rg.GET(base+"/rows", read, h.Rows(def))
		if def.CanCreate() {
			rg.GET(base+"/new", manage, h.NewModal(def))
			rg.POST(base, manage, h.Create(def))
		}
		rg.GET(base+"/:id", read, h.ShowDetail(def))
		if def.CanEdit() {
			rg.GET(base+"/:id/edit", manage, h.EditModal(def))
			rg.PUT(base+"/:id", manage, h.Update(def))
		}
		if def.Toggle != nil {
			rg.PUT(base+"/:id/toggle", manage, h.Toggle(def))
		}
		rg.GET(base+"/:id/delete", manage, h.DeleteModal(def))
		rg.DELETE(base+"/:id", manage, h.Delete(def))
	}
	// anyone who can edit a rich-text field may preview it
	rg.POST("/preview", middleware.RequireRole(h.Logger, editors...), h.Preview)
}

// readState recovers the list cursor sent along with an htmx request. Unknown filters fall
// back to "all".
func readState(c *gin.Context, def Definition) listState {
	page, _ := strconv.Atoi(c.Request.FormValue("page"))
	if page < 1 {
		page = 1
	}
	filter := c.Request.FormValue("filter")
	if filter == "" || !def.HasFilter(filter) {
		filter = models.FilterAll
	}
	return listState{
		Page:     page,
		Filter:   filter,
		Search:   c.Request.FormValue("search"),
		Instance: c.Request.FormValue("instance"),
	}
}

func (h *Handler) canManage(c *gin.Context, def Definition) bool {
	return session.Current(c).Role.In(def.Managers()...)
}

// fetchList runs the list call for state, superseding any fetch still running for the
// same page instance.
func (h *Handler) fetchList(c *gin.Context, def Definition, state listState) (models.Page, error) {
	sess := session.Current(c)
	ctx, done := h.tracker.Begin(c.Request.Context(), TrackerKey(sess.ID, state.Instance, def.Slug))
	defer done()
	return h.service.List(ctx, sess, def, state.query(h.service.PerPage()))
}

// listBody fetches and builds the list fragment. ok is false when the request has
// already been answered.
func (h *Handler) listBody(c *gin.Context, def Definition, state listState, oob bool) (templ.Component, bool) {
	page, err := h.fetchList(c, def, state)
	props := ListBodyProps{Def: def, Page: page, State: state, CanManage: h.canManage(c, def), OOB: oob}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.NoSwap(c, http.StatusNoContent)
			return nil, false
		}
		if h.HandleUnauthorized(c, err) {
			return nil, false
		}
		h.Logger.Error("Failed to load list",
			zap.String("resource", def.Slug),
			zap.Int("page", state.Page),
			zap.String("filter", state.Filter),
			zap.Error(err))
		props.Error = "Could not load " + def.Title() + "."
		props.Page = models.Page{CurrentPage: state.Page, TotalPages: state.Page}
	}
	return ListBody(props), true
}

// ShowList renders the list page at page 1 of the default filter.
func (h *Handler) ShowList(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := listState{Page: 1, Filter: models.FilterAll, Instance: uuid.NewString()}
		body, ok := h.listBody(c, def, state, false)
		if !ok {
			return
		}
		h.RenderPage(c, def.Title(), def.NavName(), ListPage(ListPageProps{
			Def:       def,
			State:     state,
			Body:      body,
			CanManage: h.canManage(c, def),
		}))
	}
}

// Rows answers pagination, filter and search requests with a fresh list body.
func (h *Handler) Rows(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := h.listBody(c, def, readState(c, def), false)
		if !ok {
			return
		}
		h.Render(c, http.StatusOK, body)
	}
}

func (h *Handler) NewModal(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := h.service.FieldOptions(c.Request.Context(), session.Current(c), def)
		if err != nil {
			if h.HandleUnauthorized(c, err) {
				return
			}
			h.failNoSwap(c, err, "Could not open the form")
			return
		}
		h.Render(c, http.StatusOK, FormModal(FormModalProps{Def: def, Options: opts}))
	}
}

func (h *Handler) EditModal(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseID(c.Param("id"))
		if !ok {
			h.Toast(c, models.ToastError, "Invalid "+def.Singular+" id")
			h.NoSwap(c, http.StatusBadRequest)
			return
		}
		ctx, sess := c.Request.Context(), session.Current(c)
		rec, err := h.service.Get(ctx, sess, def, id)
		if err != nil {
			if h.HandleUnauthorized(c, err) {
				return
			}
			h.failNoSwap(c, err, "Could not load "+def.Singular)
			return
		}
		opts, err := h.service.FieldOptions(ctx, sess, def)
		if err != nil {
			if h.HandleUnauthorized(c, err) {
				return
			}
			h.failNoSwap(c, err, "Could not open the form")
			return
		}
		h.Render(c, http.StatusOK, FormModal(FormModalProps{Def: def, Record: rec, Editing: true, Options: opts}))
	}
}

func (h *Handler) Create(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.save(c, def, "")
	}
}

func (h *Handler) Update(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseID(c.Param("id"))
		if !ok {
			h.Toast(c, models.ToastError, "Invalid "+def.Singular+" id")
			h.NoSwap(c, http.StatusBadRequest)
			return
		}
		h.save(c, def, id)
	}
}

// save validates the modal, sends one create or update call and on success closes the
// modal and refreshes the list out of band. On failure the modal stays open.
func (h *Handler) save(c *gin.Context, def Definition, id string) {
	editing := id != ""
	sub, err := ParseSubmission(c, def, editing)
	if err != nil {
		h.Logger.Warn("Failed to parse form", zap.String("resource", def.Slug), zap.Error(err))
		h.Toast(c, models.ToastError, "Could not read the form")
		h.NoSwap(c, http.StatusBadRequest)
		return
	}
	if err := Validate(def, sub, editing); err != nil {
		h.Toast(c, models.ToastError, err.Error())
		h.NoSwap(c, http.StatusUnprocessableEntity)
		return
	}

	sess := session.Current(c)
	rec, err := h.service.Save(c.Request.Context(), sess, def, id, sub)
	if err != nil {
		if h.HandleUnauthorized(c, err) {
			return
		}
		h.failNoSwap(c, err, "Could not save "+def.Singular)
		return
	}

	action, verb := audit.ActionCreate, "created"
	if editing {
		action, verb = audit.ActionUpdate, "updated"
	} else {
		id = rec.ID()
	}
	h.recorder.Record(c.Request.Context(), audit.NewEntry(sess, action, def.Slug, id))
	h.Logger.Info("Record saved", zap.String("resource", def.Slug), zap.String("id", id), zap.String("action", string(action)))

	h.CloseModal(c)
	h.Toast(c, models.ToastSuccess, def.SingularTitle()+" "+verb)
	h.refresh(c, def)
}

// Toggle flips the row's boolean and answers with the refreshed list body.
func (h *Handler) Toggle(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseID(c.Param("id"))
		if !ok {
			h.Toast(c, models.ToastError, "Invalid "+def.Singular+" id")
			h.NoSwap(c, http.StatusBadRequest)
			return
		}
		current := truthy(c.Request.FormValue("current"))
		sess := session.Current(c)
		next, err := h.service.Toggle(c.Request.Context(), sess, def, id, current)
		if err != nil {
			if h.HandleUnauthorized(c, err) {
				return
			}
			h.failNoSwap(c, err, "Could not update "+def.Singular)
			return
		}
		h.recorder.Record(c.Request.Context(), audit.NewEntry(sess, audit.ActionToggle, def.Slug, id))
		h.Logger.Info("Record toggled",
			zap.String("resource", def.Slug),
			zap.String("id", id),
			zap.Bool(def.Toggle.Field, next))

		h.Toast(c, models.ToastSuccess, def.SingularTitle()+" updated")
		body, ok := h.listBody(c, def, readState(c, def), false)
		if !ok {
			return
		}
		h.Render(c, http.StatusOK, body)
	}
}

func (h *Handler) DeleteModal(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseID(c.Param("id"))
		if !ok {
			h.Toast(c, models.ToastError, "Invalid "+def.Singular+" id")
			h.NoSwap(c, http.StatusBadRequest)
			return
		}
		rec, err := h.service.Get(c.Request.Context(), session.Current(c), def, id)
		if err != nil {
			if h.HandleUnauthorized(c, err) {
				return
			}
			// the confirmation only needs the id
			h.Logger.Warn("Failed to load record for delete", zap.String("resource", def.Slug), zap.String("id", id), zap.Error(err))
			rec = models.Record{"id": id}
		}
		h.Render(c, http.StatusOK, DeleteModal(def, rec))
	}
}

// Delete sends exactly one DELETE. The modal closes whatever the outcome.
func (h *Handler) Delete(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseID(c.Param("id"))
		if !ok {
			h.CloseModal(c)
			h.Toast(c, models.ToastError, "Invalid "+def.Singular+" id")
			h.NoSwap(c, http.StatusBadRequest)
			return
		}
		sess := session.Current(c)
		if err := h.service.Delete(c.Request.Context(), sess, def, id); err != nil {
			if h.HandleUnauthorized(c, err) {
				return
			}
			h.Logger.Error("Failed to delete record", zap.String("resource", def.Slug), zap.String("id", id), zap.Error(err))
			h.CloseModal(c)
			h.Toast(c, models.ToastError, backend.MessageOf(err, "Could not delete "+def.Singular))
			h.Render(c, http.StatusOK, templ.NopComponent)
			return
		}
		h.recorder.Record(c.Request.Context(), audit.NewEntry(sess, audit.ActionDelete, def.Slug, id))
		h.Logger.Info("Record deleted", zap.String("resource", def.Slug), zap.String("id", id))

		h.CloseModal(c)
		h.Toast(c, models.ToastSuccess, def.SingularTitle()+" deleted")
		h.refresh(c, def)
	}
}

// ShowDetail renders the read-only page of a record.
func (h *Handler) ShowDetail(def Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParseID(c.Param("id"))
		if !ok {
			h.RenderPage(c, "Not found", def.NavName(), views.NotFound())
			return
		}
		rec, err := h.service.Get(c.Request.Context(), session.Current(c), def, id)
		if err != nil {
			if h.HandleUnauthorized(c, err) {
				return
			}
			h.Logger.Warn("Failed to load record", zap.String("resource", def.Slug), zap.String("id", id), zap.Error(err))
			if errors.Is(err, models.ErrNotFound) {
				h.RenderPage(c, "Not found", def.NavName(), views.NotFound())
				return
			}
			h.RenderPage(c, def.SingularTitle(), def.NavName(), views.ErrorBanner("Could not load "+def.Singular+"."))
			return
		}
		title := def.SingularTitle()
		if label := recordLabel(rec); label != "" {
			title += ": " + label
		}
		h.RenderPage(c, title, def.NavName(), DetailPage(def, rec))
	}
}

// Preview renders the sanitized HTML of a rich-text or markdown input.
func (h *Handler) Preview(c *gin.Context) {
	field := c.PostForm("field")
	kind := richtext.Kind(c.PostForm("kind"))
	if field == "" {
		h.NoSwap(c, http.StatusBadRequest)
		return
	}
	html, err := richtext.Render(kind, c.PostForm(field))
	if err != nil {
		h.Logger.Warn("Failed to render preview", zap.String("field", field), zap.Error(err))
		h.Render(c, http.StatusOK, views.ErrorBanner("Preview unavailable."))
		return
	}
	h.Render(c, http.StatusOK, PreviewFragment(html))
}

// refresh answers a successful modal mutation: the modal target is emptied and the list
// body is replaced out of band.
func (h *Handler) refresh(c *gin.Context, def Definition) {
	body, ok := h.listBody(c, def, readState(c, def), true)
	if !ok {
		return
	}
	h.Render(c, http.StatusOK, body)
}

// failNoSwap reports a backend failure as a toast and mirrors its status. Server errors
// become 502.
func (h *Handler) failNoSwap(c *gin.Context, err error, fallback string) {
	h.Logger.Error(fallback, zap.Error(err))
	h.Toast(c, models.ToastError, backend.MessageOf(err, fallback))
	h.NoSwap(c, backend.StatusFor(err))
}
