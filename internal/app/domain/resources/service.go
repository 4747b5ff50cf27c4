package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

// Backend is the part of backend.Client the resource pages use.
type Backend interface {
	Get(ctx context.Context, sess models.Session, path string, query url.Values) ([]byte, error)
	SendJSON(ctx context.Context, sess models.Session, method, path string, payload any) ([]byte, error)
	SendMultipart(ctx context.Context, sess models.Session, method, path string, form backend.Multipart) ([]byte, error)
	Delete(ctx context.Context, sess models.Session, path string) error
}

var _ Backend = (*backend.Client)(nil)

type Service struct {
	backend  Backend
	registry *Registry
	options  *OptionsCache
	perPage  int
	logger   *zap.Logger
}

func NewService(b Backend, registry *Registry, options *OptionsCache, perPage int, logger *zap.Logger) *Service {
	if options == nil {
		options = NewOptionsCache()
	}
	return &Service{backend: b, registry: registry, options: options, perPage: perPage, logger: logger}
}

func (s *Service) PerPage() int {
	return s.perPage
}

// List fetches one page of def's records.
func (s *Service) List(ctx context.Context, sess models.Session, def Definition, q models.ListQuery) (models.Page, error) {
	if q.PerPage <= 0 {
		q.PerPage = s.perPage
	}
	body, err := s.backend.Get(ctx, sess, def.Endpoint, q.Values(def.FilterParam))
	if err != nil {
		return models.Page{}, err
	}
	page, err := backend.DecodePage(body, def.Key, q)
	if err != nil {
		return models.Page{}, fmt.Errorf("failed to decode %s list: %w", def.Slug, err)
	}
	return page, nil
}

// Get fetches a single record.
func (s *Service) Get(ctx context.Context, sess models.Session, def Definition, id string) (models.Record, error) {
	body, err := s.backend.Get(ctx, sess, def.RecordPath(id), nil)
	if err != nil {
		return nil, err
	}
	rec, err := backend.DecodeRecord(body, def.RecordKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", def.Singular, err)
	}
	if rec.ID() == "" {
		rec["id"] = id
	}
	return rec, nil
}

// Save creates (id == "") or updates a record. The body is multipart when a file was
// uploaded and JSON otherwise.
func (s *Service) Save(ctx context.Context, sess models.Session, def Definition, id string, sub Submission) (models.Record, error) {
	editing := id != ""
	method, path := http.MethodPost, def.Endpoint
	if editing {
		method, path = http.MethodPut, def.RecordPath(id)
	}

	sub = ResolveImageInputs(sub)

	var (
		body []byte
		err  error
	)
	if sub.HasFiles() {
		form, closer, ferr := MultipartBody(def, sub, editing)
		if ferr != nil {
			return nil, ferr
		}
		body, err = s.backend.SendMultipart(ctx, sess, method, path, form)
		_ = closer.Close()
	} else {
		body, err = s.backend.SendJSON(ctx, sess, method, path, JSONPayload(def, sub, editing))
	}
	if err != nil {
		return nil, err
	}
	s.options.Invalidate(def.Slug)

	rec, err := backend.DecodeRecord(body, def.RecordKey)
	if err != nil {
		s.logger.Warn("Saved record response not decodable", zap.String("resource", def.Slug), zap.Error(err))
		rec = models.Record{}
	}
	if rec.ID() == "" && editing {
		rec["id"] = id
	}
	return rec, nil
}

// Toggle flips def's toggle field: the backend receives the negation of current.
func (s *Service) Toggle(ctx context.Context, sess models.Session, def Definition, id string, current bool) (bool, error) {
	if def.Toggle == nil {
		return current, fmt.Errorf("%s has no toggle: %w", def.Slug, models.ErrBadRequest)
	}
	next := !current
	method, path := def.TogglePath(id)
	if _, err := s.backend.SendJSON(ctx, sess, method, path, map[string]any{def.Toggle.Field: next}); err != nil {
		return current, err
	}
	s.options.Invalidate(def.Slug)
	return next, nil
}

func (s *Service) Delete(ctx context.Context, sess models.Session, def Definition, id string) error {
	if err := s.backend.Delete(ctx, sess, def.RecordPath(id)); err != nil {
		return err
	}
	s.options.Invalidate(def.Slug)
	return nil
}

// Options returns the select options built from another resource's records.
func (s *Service) Options(ctx context.Context, sess models.Session, slug string) ([]views.Option, error) {
	source, ok := s.registry.Get(slug)
	if !ok {
		return nil, fmt.Errorf("options source %q: %w", slug, models.ErrUnknownResource)
	}
	return s.options.Get(ctx, slug, func(ctx context.Context) ([]views.Option, error) {
		page, err := s.List(ctx, sess, source, models.NewListQuery(1, optionsPerPage, models.FilterAll, ""))
		if err != nil {
			return nil, err
		}
		opts := make([]views.Option, 0, len(page.Items))
		for _, rec := range page.Items {
			label := rec.String("name")
			if label == "" {
				label = rec.String("title")
			}
			opts = append(opts, views.Option{Value: rec.ID(), Label: label})
		}
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
		return opts, nil
	})
}

// FieldOptions resolves the options of every select of def. A failing source leaves its
// select empty.
func (s *Service) FieldOptions(ctx context.Context, sess models.Session, def Definition) (map[string][]views.Option, error) {
	out := map[string][]views.Option{}
	for _, f := range def.Fields {
		if f.Kind != views.FieldSelect {
			continue
		}
		if f.OptionsFrom == "" {
			out[f.Name] = f.Options
			continue
		}
		opts, err := s.Options(ctx, sess, f.OptionsFrom)
		if err != nil {
			if backend.IsUnauthorized(err) {
				return nil, err
			}
			s.logger.Warn("Failed to load select options",
				zap.String("resource", def.Slug),
				zap.String("source", f.OptionsFrom),
				zap.Error(err))
			continue
		}
		out[f.Name] = opts
	}
	return out, nil
}

// Count returns the total number of records of def, used by the dashboard. It asks for one
// record per page, so when the envelope carries no total the page count is the record count.
func (s *Service) Count(ctx context.Context, sess models.Session, def Definition, filter string) (int, error) {
	page, err := s.List(ctx, sess, def, models.NewListQuery(1, 1, filter, ""))
	if err != nil {
		return 0, err
	}
	switch {
	case page.Counted:
		return page.Total, nil
	case len(page.Items) == 0:
		return 0, nil
	default:
		return page.TotalPages, nil
	}
}

// ParseID accepts numeric ids and uuid or slug style ones, rejecting anything that could
// change the backend path.
func ParseID(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return raw, true
	}
	// some resources use uuids or slugs
	for _, r := range raw {
		if !(r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", false
		}
	}
	return raw, true
}
