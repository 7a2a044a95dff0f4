package responder

import (
	"time"

	"github.com/quietwire/flare/internal/logging"
	"github.com/quietwire/flare/internal/transport"
)

// Option configures a Responder at construction time.
type Option func(*config)

type config struct {
	scope           transport.NetworkScope
	logger          logging.Logger
	observer        Observer
	rateThreshold   int
	rateCooldown    time.Duration
	rateMaxEntries  int
	disableSecurity bool
}

func defaultConfig() *config {
	return &config{
		scope:          transport.Both(),
		logger:         logging.Discard,
		rateThreshold:  20, // RFC 6762 §6.2 flood guard: 20 queries/sec per (source, name, type)
		rateCooldown:   10 * time.Second,
		rateMaxEntries: 4096,
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

// WithObserver stores o in the Responder's configuration. The receive loop
// does not call it: dropped, rate-limited and malformed datagrams are
// reported only through the Logger.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// WithRateLimit overrides the query-flood threshold (default 20/sec), counted
// per (source, question name, question type), and the cooldown applied once
// such a key exceeds it.
func WithRateLimit(queriesPerSecond int, cooldown time.Duration) Option {
	return func(c *config) { c.rateThreshold = queriesPerSecond; c.rateCooldown = cooldown }
}

// WithoutSecurity disables source filtering and rate limiting, for tests
// running over transport.Mock where every peer is already trusted.
func WithoutSecurity() Option {
	return func(c *config) { c.disableSecurity = true }
}

// Observer is the notification interface accepted by WithObserver. No part
// of the responder calls its methods.
type Observer interface {
	OnDropped(reason, source string)
}
