package gallery

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

const (
	bodyID = "gallery-body"
	gridID = "gallery-grid"
)

func GalleryPage(page models.Page, errMsg string, canManage bool) templ.Component {
	return views.Func(func(w *views.Writer) {
		w.Raw(`<section id="gallery" class="space-y-4">`)
		if canManage {
			w.Raw(`<form class="upload-form flex items-center gap-3 rounded-lg bg-white p-4 shadow" hx-post="/gallery"`,
				` hx-encoding="multipart/form-data" hx-target="#`, gridID, `" hx-swap="afterbegin"`,
				` hx-on::after-request="if(event.detail.successful) this.reset()">`)
			w.Component(views.FormField(views.Field{Name: "image", Label: "Upload image", Kind: views.FieldFile, Accept: "image/*", Required: true}))
			w.Component(views.Button(views.ButtonProps{Label: "Upload", Type: "submit"}))
			w.Raw(`</form>`)
		}
		w.Component(GalleryBody(page, errMsg, canManage))
		w.Raw(`</section>`)
	})
}

// GalleryBody is the grid with its pagination.
func GalleryBody(page models.Page, errMsg string, canManage bool) templ.Component {
	return views.Func(func(w *views.Writer) {
		w.Raw(`<div id="`, bodyID, `">`)
		if errMsg != "" {
			w.Component(views.ErrorBanner(errMsg))
		}
		w.Raw(`<div id="`, gridID, `" class="grid grid-cols-2 gap-4 md:grid-cols-4">`)
		for _, rec := range page.Items {
			w.Component(Tile(rec, canManage))
		}
		w.Raw(`</div>`)
		if errMsg == "" {
			w.Raw(`<p id="gallery-empty" class="empty-state py-8 text-center text-sm text-gray-500">No images yet.</p>`)
		}
		w.Component(views.Pagination(views.PaginationProps{
			Page:    page,
			HrefFor: func(n int) string { return "/gallery/tiles?page=" + strconv.Itoa(n) },
			Target:  "#" + bodyID,
			Sync:    "#" + bodyID + ":replace",
		}))
		w.Raw(`</div>`)
	})
}

// Tile is one image of the grid.
func Tile(rec models.Record, canManage bool) templ.Component {
	return views.Func(func(w *views.Writer) {
		src := rec.String("image_url")
		if src == "" {
			src = rec.String("url")
		}
		w.Raw(`<figure class="gallery-tile group relative overflow-hidden rounded-lg bg-white shadow" data-id="`, views.Esc(rec.ID()), `">`)
		w.Raw(`<img src="`, views.URL(src), `" alt="" class="aspect-square w-full object-cover" loading="lazy">`)
		if canManage {
			w.Raw(`<button type="button" class="tile-delete absolute right-2 top-2 rounded bg-white/90 px-2 text-xs text-red-600"`,
				` hx-delete="/gallery/`, views.Esc(rec.ID()), `" hx-confirm="Delete this image?"`,
				` hx-target="closest figure" hx-swap="outerHTML">Delete</button>`)
		}
		w.Raw(`</figure>`)
	})
}
