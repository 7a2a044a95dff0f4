package querier

import (
	"time"

	"github.com/quietwire/flare/internal/logging"
	"github.com/quietwire/flare/internal/transport"
)

// Option configures a Discovery at construction time.
type Option func(*config)

type config struct {
	scope           transport.NetworkScope
	logger          logging.Logger
	queryInterval   time.Duration
	disableSecurity bool
}

func defaultConfig() *config {
	return &config{
		scope:         transport.Both(),
		logger:        logging.Discard,
		queryInterval: 0, // 0 selects discovery.DefaultQueryInterval per Browse call
	}
}

// WithNetworkScope selects which multicast group(s) and interface(s) to bind.
func WithNetworkScope(scope transport.NetworkScope) Option {
	return func(c *config) { c.scope = scope }
}

// WithLogger supplies a structured logger; the default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithQueryInterval overrides the default periodic browse interval (60s).
func WithQueryInterval(d time.Duration) Option {
	return func(c *config) { c.queryInterval = d }
}

// WithoutSecurity disables source filtering, for tests running over
// transport.Mock where every peer is already trusted.
func WithoutSecurity() Option {
	return func(c *config) { c.disableSecurity = true }
}
