package source

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
)

// Source names with adapter implementations.
const (
	NameBookingData = "bookingdata"
	NameMaxMilhas   = "maxmilhas"
	NameMilhas123   = "123milhas"
)

// Registry resolves source rows to adapter instances, caching one adapter
// per source name for the process lifetime. Resolution yields nil, not an
// error, for inactive sources, unknown names, and sources whose required
// credential is unset.
type Registry struct {
	cfg    config.SourcesConfig
	search config.SearchConfig
	logger *zap.Logger

	mu       sync.Mutex
	adapters map[string]Adapter
}

func NewRegistry(cfg config.SourcesConfig, search config.SearchConfig, logger *zap.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		search:   search,
		logger:   logger,
		adapters: map[string]Adapter{},
	}
}

// Resolve returns the adapter for a source, or nil when the source cannot be
// served.
func (r *Registry) Resolve(src models.Source) Adapter {
	if !src.Active {
		return nil
	}
	name := strings.ToLower(strings.TrimSpace(src.Name))

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.adapters[name]; ok {
		return a
	}

	var adapter Adapter
	switch name {
	case NameBookingData:
		if strings.TrimSpace(r.cfg.BookingData.APIKey) == "" {
			if r.logger != nil {
				r.logger.Warn("bookingdata source skipped: api key unset")
			}
			return nil
		}
		adapter = newBookingDataAdapter(src, r.cfg.BookingData, r.maxCombos(), r.logger)
	case NameMaxMilhas:
		adapter = newMaxMilhasAdapter(src, r.cfg.MaxMilhas, r.logger)
	case NameMilhas123:
		adapter = newMilhas123Adapter(src, r.cfg.Milhas123, r.maxCombos(), r.logger)
	default:
		if r.logger != nil {
			r.logger.Warn("no adapter implementation for source", zap.String("source", src.Name))
		}
		return nil
	}

	r.adapters[name] = adapter
	return adapter
}

// ClearCache closes and drops every cached adapter, forcing recreation on the
// next resolve (credential rotation, source toggling).
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, a := range r.adapters {
		_ = a.Close()
		delete(r.adapters, name)
	}
}

func (r *Registry) maxCombos() int {
	if r.search.MaxDateCombinations > 0 {
		return r.search.MaxDateCombinations
	}
	return DefaultMaxDateCombinations
}
