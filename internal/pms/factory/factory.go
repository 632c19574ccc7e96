// Package factory assembles the provider registry from configuration. It is
// the only place that knows every concrete adapter type; the rest of the
// engine works against the pms.Adapter interface.
package factory

import (
	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/pms"
	"github.com/git-seb/rental-sync-engine/internal/pms/hostaway"
	"github.com/git-seb/rental-sync-engine/internal/pms/hostify"
	"github.com/git-seb/rental-sync-engine/internal/pms/nextpax"
	"github.com/git-seb/rental-sync-engine/internal/pms/ownerrez"
	"github.com/git-seb/rental-sync-engine/internal/pms/rentalsunited"
	"github.com/git-seb/rental-sync-engine/internal/pms/uplisting"
)

// Build registers an adapter for every enabled provider. Disabled providers
// are skipped entirely so their credentials are never touched.
func Build(cfg *config.Config, log *logger.Logger) *pms.Registry {
	base := pms.ClientOptions{
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
		RateLimit:  cfg.RateLimitRequests,
		RateWindow: cfg.RateLimitWindow,
		FailFast:   cfg.RateLimitFailFast,
	}

	registry := pms.NewRegistry()
	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		switch name {
		case "hostaway":
			registry.Register(hostaway.New(pc, base))
		case "uplisting":
			registry.Register(uplisting.New(pc, base))
		case "hostify":
			registry.Register(hostify.New(pc, base))
		case "nextpax":
			registry.Register(nextpax.New(pc, base))
		case "ownerrez":
			registry.Register(ownerrez.New(pc, base))
		case "rentalsunited":
			registry.Register(rentalsunited.New(pc, base))
		default:
			log.Warn("Unknown provider %q in configuration, skipping", name)
			continue
		}
		log.Info("Registered provider: %s", name)
	}
	return registry
}
