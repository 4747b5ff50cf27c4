package chat

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Deduper remembers message ids per chat page for a while, so a message that reaches a
// page twice (the REST reply and the socket echo) is shown once.
type Deduper struct {
	seen *cache.Cache
}

func NewDeduper(ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Deduper{seen: cache.New(ttl, 2*ttl)}
}

// Remember marks id as already displayed on the page identified by scope.
func (d *Deduper) Remember(scope, id string) {
	if id == "" {
		return
	}
	d.seen.SetDefault(scope+"|"+id, struct{}{})
}

// FirstSeen reports whether id is new on the page, and marks it. Messages without an id
// are always new.
func (d *Deduper) FirstSeen(scope, id string) bool {
	if id == "" {
		return true
	}
	return d.seen.Add(scope+"|"+id, struct{}{}, cache.DefaultExpiration) == nil
}
