package clock

import "sync"

// Registry arbitrates which Conductor is authoritative. The first one
// registered wins, later ones are made inert.
type Registry struct {
	mu    sync.Mutex
	owner *Conductor
}

// Register returns the authoritative conductor, which is c only if nothing
// else holds the registry.
func (r *Registry) Register(c *Conductor) *Conductor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if nil == c {
		return r.owner
	}
	if nil == r.owner {
		r.owner = c
		return c
	}
	if r.owner != c {
		c.inert = true
		c.logger.Warnf("a conductor is already registered, the new one is inert")
	}
	return r.owner
}

func (r *Registry) Current() *Conductor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// Release frees the registry if c owns it, so a new session can register.
func (r *Registry) Release(c *Conductor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if nil == c || r.owner != c {
		return false
	}
	r.owner = nil
	return true
}

var defaultRegistry Registry

func Register(c *Conductor) *Conductor {
	return defaultRegistry.Register(c)
}

func Current() *Conductor {
	return defaultRegistry.Current()
}

func Release(c *Conductor) bool {
	return defaultRegistry.Release(c)
}
