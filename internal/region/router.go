package region

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Router resolves a home region to the pgx pool of the regional database that
// owns that region's users, tokens, and sessions. Pools are constructed at
// process start and closed by Close at shutdown; the router itself is
// read-only after construction.
type Router struct {
	pools map[Region]*pgxpool.Pool
}

// NewRouter builds a Router from the given region→pool map. Every supported
// region must be present; a partial deployment is a configuration error.
func NewRouter(pools map[Region]*pgxpool.Pool) (*Router, error) {
	for _, r := range All {
		if pools[r] == nil {
			return nil, fmt.Errorf("region router: no database pool for %s", r)
		}
	}
	m := make(map[Region]*pgxpool.Pool, len(pools))
	for r, p := range pools {
		if !r.Valid() {
			return nil, fmt.Errorf("region router: unknown region %q", r)
		}
		m[r] = p
	}
	return &Router{pools: m}, nil
}

// Pool returns the database pool owning the given region.
func (rt *Router) Pool(r Region) (*pgxpool.Pool, error) {
	p, ok := rt.pools[r]
	if !ok {
		return nil, fmt.Errorf("region router: no database pool for %s", r)
	}
	return p, nil
}

// Close closes every regional pool.
func (rt *Router) Close() {
	for _, p := range rt.pools {
		p.Close()
	}
}
