package store

import "fmt"

// New selects the session backend by driver name. An empty driver falls back
// to the in-memory store.
func New(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unknown session store driver %q", cfg.Driver)
	}
}
