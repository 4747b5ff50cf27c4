// Package dashboard is the admin landing page: one tile per headline total.
package dashboard

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/resources"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

// Counter is satisfied by resources.Service.
type Counter interface {
	Count(ctx context.Context, sess models.Session, def resources.Definition, filter string) (int, error)
}

var _ Counter = (*resources.Service)(nil)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Tiles(ctx context.Context, sess models.Session) ([]Tile, error)
}

// Tile is one total. A tile whose fetch failed keeps Err and shows a dash.
type Tile struct {
	Title  string
	Slug   string
	Filter string
	Value  int
	Err    error
}

func (t Tile) Display() string {
	if t.Err != nil {
		return "—"
	}
	return strconv.Itoa(t.Value)
}

type tileSpec struct {
	title  string
	slug   string
	filter string
}

var tileSpecs = []tileSpec{
	{"Users", "users", models.FilterAll},
	{"Engineers", "engineers", models.FilterAll},
	{"Services", "services", models.FilterAll},
	{"Orders", "orders", models.FilterAll},
	{"Pending orders", "orders", "pending"},
	{"Contact leads", "contact-form", models.FilterAll},
}

type ServiceImpl struct {
	counter  Counter
	registry *resources.Registry
	logger   *zap.Logger
}

func NewService(counter Counter, registry *resources.Registry, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{counter: counter, registry: registry, logger: logger}
}

// Tiles fetches every total concurrently. Failures stay on their tile; only a rejected
// session is returned as an error, and it cancels the remaining fetches.
func (s *ServiceImpl) Tiles(ctx context.Context, sess models.Session) ([]Tile, error) {
	l := s.logger.With(zap.String("method", "Tiles"))
	tiles := make([]Tile, len(tileSpecs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range tileSpecs {
		tiles[i] = Tile{Title: spec.title, Slug: spec.slug, Filter: spec.filter}
		def, ok := s.registry.Get(spec.slug)
		if !ok {
			tiles[i].Err = models.ErrUnknownResource
			continue
		}
		g.Go(func() error {
			n, err := s.counter.Count(gctx, sess, def, spec.filter)
			if err != nil {
				if backend.IsUnauthorized(err) {
					return err
				}
				l.Warn("Failed to load dashboard total", zap.String("tile", spec.title), zap.Error(err))
				tiles[i].Err = err
				return nil
			}
			tiles[i].Value = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}
