// Package cache stores assembled destination lists keyed by budget and currency.
package cache

import (
	"strconv"
	"time"

	"github.com/neexbeast/budgettrip/internal/destination"
)

const (
	// DefaultTTL is how long an entry counts as fresh.
	DefaultTTL = time.Hour
	// DefaultMaxEntries bounds the in-memory store.
	DefaultMaxEntries = 1000
)

// Entry is one cached result. Data may be empty but is never nil once stored.
type Entry struct {
	CreatedAt time.Time            `json:"created_at"`
	Data      []destination.Record `json:"data"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return e != nil && now.Sub(e.CreatedAt) < ttl
}

// Key returns the cache key for a normalized query.
func Key(q destination.BudgetQuery) string {
	return strconv.FormatInt(q.Budget, 10) + ":" + q.Currency
}
