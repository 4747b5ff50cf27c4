// Package gallery is the image grid of the public site. It reuses the generic resource
// service for the calls and only differs in layout: tiles instead of rows, and uploads are
// prepended to the grid instead of refreshing a table.
package gallery

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/audit"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/resources"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
)

const Slug = "gallery"

type Handler struct {
	*handlers.BaseHandler
	service  *resources.Service
	def      resources.Definition
	recorder audit.Recorder
}

func NewHandler(base *handlers.BaseHandler, service *resources.Service, registry *resources.Registry, recorder audit.Recorder) (*Handler, error) {
	def, ok := registry.Get(Slug)
	if !ok {
		return nil, models.ErrUnknownResource
	}
	if recorder == nil {
		recorder = audit.NewLogRecorder(base.Logger)
	}
	return &Handler{BaseHandler: base, service: service, def: def, recorder: recorder}, nil
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	read := middleware.RequireRole(h.Logger, h.def.Roles...)
	manage := middleware.RequireRole(h.Logger, h.def.Managers()...)

	rg.GET("/gallery", read, h.ShowGallery)
	rg.GET("/gallery/tiles", read, h.Tiles)
	rg.POST("/gallery", manage, h.Upload)
	rg.DELETE("/gallery/:id", manage, h.Delete)
}

func (h *Handler) load(c *gin.Context, page int) (models.Page, string, bool) {
	q := models.NewListQuery(page, h.service.PerPage(), models.FilterAll, "")
	p, err := h.service.List(c.Request.Context(), session.Current(c), h.def, q)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.NoSwap(c, http.StatusNoContent)
			return p, "", false
		}
		if h.HandleUnauthorized(c, err) {
			return p, "", false
		}
		h.Logger.Error("Failed to load gallery", zap.Int("page", page), zap.Error(err))
		return models.Page{CurrentPage: page, TotalPages: page}, "Could not load the gallery.", true
	}
	return p, "", true
}

func (h *Handler) ShowGallery(c *gin.Context) {
	page, msg, ok := h.load(c, 1)
	if !ok {
		return
	}
	canManage := session.Current(c).Role.In(h.def.Managers()...)
	h.RenderPage(c, "Gallery", h.def.NavName(), GalleryPage(page, msg, canManage))
}

// Tiles answers the pagination links with the next grid.
func (h *Handler) Tiles(c *gin.Context) {
	n, _ := strconv.Atoi(c.Query("page"))
	page, msg, ok := h.load(c, n)
	if !ok {
		return
	}
	canManage := session.Current(c).Role.In(h.def.Managers()...)
	h.Render(c, http.StatusOK, GalleryBody(page, msg, canManage))
}

// Upload sends the image as one multipart POST and answers with the new tile, which
// htmx prepends to the grid.
func (h *Handler) Upload(c *gin.Context) {
	sub, err := resources.ParseSubmission(c, h.def, false)
	if err != nil {
		h.Logger.Warn("Failed to parse upload", zap.Error(err))
		h.Toast(c, models.ToastError, "Could not read the upload")
		h.NoSwap(c, http.StatusBadRequest)
		return
	}
	if err := resources.Validate(h.def, sub, false); err != nil {
		h.Toast(c, models.ToastError, err.Error())
		h.NoSwap(c, http.StatusUnprocessableEntity)
		return
	}

	sess := session.Current(c)
	rec, err := h.service.Save(c.Request.Context(), sess, h.def, "", sub)
	if err != nil {
		if h.HandleUnauthorized(c, err) {
			return
		}
		h.Logger.Error("Failed to upload image", zap.Error(err))
		h.Toast(c, models.ToastError, backend.MessageOf(err, "Could not upload the image"))
		h.NoSwap(c, backend.StatusFor(err))
		return
	}
	h.recorder.Record(c.Request.Context(), audit.NewEntry(sess, audit.ActionUpload, Slug, rec.ID()))
	h.Logger.Info("Image uploaded", zap.String("id", rec.ID()))

	c.Header("HX-Retarget", "#"+gridID)
	c.Header("HX-Reswap", "afterbegin")
	h.Toast(c, models.ToastSuccess, "Image uploaded")
	h.Render(c, http.StatusOK, Tile(rec, true))
}

// Delete removes one image; the tile swaps itself out on success.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := resources.ParseID(c.Param("id"))
	if !ok {
		h.Toast(c, models.ToastError, "Invalid image id")
		h.NoSwap(c, http.StatusBadRequest)
		return
	}
	sess := session.Current(c)
	if err := h.service.Delete(c.Request.Context(), sess, h.def, id); err != nil {
		if h.HandleUnauthorized(c, err) {
			return
		}
		h.Logger.Error("Failed to delete image", zap.String("id", id), zap.Error(err))
		h.Toast(c, models.ToastError, backend.MessageOf(err, "Could not delete the image"))
		h.NoSwap(c, backend.StatusFor(err))
		return
	}
	h.recorder.Record(c.Request.Context(), audit.NewEntry(sess, audit.ActionDelete, Slug, id))
	h.Toast(c, models.ToastSuccess, "Image deleted")
	c.Status(http.StatusOK)
}
