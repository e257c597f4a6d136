package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Registry maps site ids to their owning hub instance. Hubs are created
// lazily on first use and retained for the life of the process; they hold
// no state the message log cannot rebuild, so eviction is a non-concern
// for correctness.
type Registry struct {
	mu   sync.Mutex
	hubs map[string]*Hub
	opts Options
	log  *slog.Logger
}

// NewRegistry builds a registry; every hub it creates shares opts.
func NewRegistry(opts Options) *Registry {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		hubs: make(map[string]*Hub),
		opts: opts,
		log:  log,
	}
}

// GetOrCreate returns the hub owning siteID, starting its event loop on
// first creation. The same id always yields the same instance.
func (r *Registry) GetOrCreate(siteID string) *Hub {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.hubs[siteID]; ok {
		return h
	}
	h := New(siteID, r.opts)
	r.hubs[siteID] = h
	go h.Run()
	r.log.Info("hub created", "site_id", siteID)
	return h
}

// Shutdown stops every hub, splitting the timeout evenly across them.
func (r *Registry) Shutdown(timeout time.Duration) {
	r.mu.Lock()
	hubs := lo.Values(r.hubs)
	r.mu.Unlock()

	if len(hubs) == 0 {
		return
	}
	perHub := timeout / time.Duration(len(hubs))
	for _, h := range hubs {
		if err := h.Shutdown(perHub); err != nil {
			r.log.Warn("hub shutdown incomplete", "site_id", h.SiteID(), "err", err)
		}
	}
}
