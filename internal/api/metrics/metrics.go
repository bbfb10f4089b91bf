// Package metrics defines the custom Prometheus metrics for the Globely API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Call Register once per registry before the HTTP server starts.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "globely"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts requests rejected by the auth guard.
// Label:
//   - reason: "no_token" or "invalid_token"
var AuthFailuresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by the bearer token guard.",
	},
	[]string{"reason"},
)

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of accounts created.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "blocked" or "error"
var LoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Favorites metrics ─────────────────────────────────────────────────────────

// FavoritesChangesTotal counts successful favorites writes.
// Label:
//   - op: "add" or "remove"
var FavoritesChangesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorites_changes_total",
		Help:      "Total number of favorites added or removed.",
	},
	[]string{"op"},
)

// Register adds every collector to reg. Collectors that are already
// registered are skipped, so calling Register twice on one registry is safe.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		AuthFailuresTotal,
		UsersRegisteredTotal,
		LoginsTotal,
		FavoritesChangesTotal,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
