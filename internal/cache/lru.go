package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scmmishra/geolink/internal/geo"
)

// Lookuper resolves an IP address to geo data.
type Lookuper interface {
	Lookup(ip string) (geo.Result, bool)
}

type entry struct {
	res   geo.Result
	found bool
}

// GeoCache memoizes lookups by IP, misses included.
type GeoCache struct {
	next Lookuper
	c    *lru.Cache[string, entry]
}

func New(next Lookuper, size int) (*GeoCache, error) {
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &GeoCache{next: next, c: c}, nil
}

func (gc *GeoCache) Lookup(ip string) (geo.Result, bool) {
	if e, ok := gc.c.Get(ip); ok {
		return e.res, e.found
	}
	res, found := gc.next.Lookup(ip)
	gc.c.Add(ip, entry{res: res, found: found})
	return res, found
}

func (gc *GeoCache) Len() int {
	return gc.c.Len()
}
