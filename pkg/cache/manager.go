package cache

import "net/http"

// Manager holds separate cache instances for the policy and ICE config
// endpoints, each with its own TTL. Policy answers change on PATCH and
// get invalidated by the middleware itself; the ICE list only changes
// on restart, so it tolerates a longer TTL.
type Manager struct {
	policy *LRUCache
	ice    *LRUCache
}

// NewManager creates a Manager from the given configuration. If cfg is
// nil or disabled, it returns nil and the middleware accessors become
// pass-throughs.
func NewManager(cfg *Config) *Manager {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return &Manager{
		policy: NewLRUCache(cfg.MaxSize, cfg.PolicyTTL),
		ice:    NewLRUCache(cfg.MaxSize, cfg.ICETTL),
	}
}

// PolicyMiddleware returns caching middleware for the policy endpoint.
func (m *Manager) PolicyMiddleware() func(http.Handler) http.Handler {
	if m == nil {
		return passthrough
	}
	return Middleware(m.policy)
}

// ICEMiddleware returns caching middleware for the ICE config endpoint.
func (m *Manager) ICEMiddleware() func(http.Handler) http.Handler {
	if m == nil {
		return passthrough
	}
	return Middleware(m.ice)
}

// InvalidateAll clears both caches entirely.
func (m *Manager) InvalidateAll() {
	if m == nil {
		return
	}
	m.policy.InvalidateAll()
	m.ice.InvalidateAll()
}

func passthrough(next http.Handler) http.Handler { return next }
