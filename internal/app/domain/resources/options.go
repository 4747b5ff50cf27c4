package resources

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

const (
	optionsTTL     = 5 * time.Minute
	optionsCleanup = 10 * time.Minute
	optionsPerPage = 100
)

// OptionsCache keeps select options (categories, labels) for a few minutes. Any mutation
// of the source resource drops its entry.
type OptionsCache struct {
	c *cache.Cache
}

func NewOptionsCache() *OptionsCache {
	return &OptionsCache{c: cache.New(optionsTTL, optionsCleanup)}
}

// Get returns cached options for slug or calls load and caches its result.
func (o *OptionsCache) Get(ctx context.Context, slug string, load func(context.Context) ([]views.Option, error)) ([]views.Option, error) {
	if v, ok := o.c.Get(slug); ok {
		if opts, ok := v.([]views.Option); ok {
			return opts, nil
		}
	}
	opts, err := load(ctx)
	if err != nil {
		return nil, err
	}
	o.c.Set(slug, opts, cache.DefaultExpiration)
	return opts, nil
}

func (o *OptionsCache) Invalidate(slug string) {
	o.c.Delete(slug)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
