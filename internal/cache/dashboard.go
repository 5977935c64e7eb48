// Package cache holds the Redis-backed dashboard snapshot cache.  The
// dashboard aggregates occupancy and revenue queries that are too heavy
// to run on every poll, so handlers serve a cached snapshot and the
// coordinator invalidates it after every committed entry or exit.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const dashboardPrefix = "parking:dashboard:"

// Dashboard caches serialized dashboard snapshots per facility.  A nil
// Redis client disables the cache: Get always misses and Set and
// Invalidate are no-ops, so the system degrades to computing snapshots
// on demand.
type Dashboard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDashboard returns a dashboard cache with the given entry lifetime.
// ttl values of zero or below fall back to 30 seconds.
func NewDashboard(rdb *redis.Client, ttl time.Duration) *Dashboard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Dashboard{rdb: rdb, ttl: ttl}
}

func key(facilityID uint64) string {
	return dashboardPrefix + strconv.FormatUint(facilityID, 10)
}

// Get loads the cached snapshot for a facility into dst.  It returns
// false on a miss, on a disabled cache, and on any Redis or decode
// failure; the caller then recomputes.
func (d *Dashboard) Get(ctx context.Context, facilityID uint64, dst interface{}) bool {
	if d.rdb == nil {
		return false
	}
	raw, err := d.rdb.Get(ctx, key(facilityID)).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	return true
}

// Set stores a snapshot for a facility.  Failures are logged and
// swallowed; a cold cache is never worth failing a request over.
func (d *Dashboard) Set(ctx context.Context, facilityID uint64, snapshot interface{}) {
	if d.rdb == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("[cache] marshal dashboard snapshot: %v", err)
		return
	}
	if err := d.rdb.Set(ctx, key(facilityID), raw, d.ttl).Err(); err != nil {
		log.Printf("[cache] set dashboard snapshot: %v", err)
	}
}

// Invalidate drops the facility's snapshot and the all-facilities
// snapshot (facility zero).  It satisfies the coordinator's Invalidator
// contract and runs after commit, so a dropped key is always followed
// by a fresh recompute on the next read.
func (d *Dashboard) Invalidate(ctx context.Context, facilityID uint64) {
	if d.rdb == nil {
		return
	}
	keys := []string{key(0)}
	if facilityID != 0 {
		keys = append(keys, key(facilityID))
	}
	if err := d.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[cache] invalidate dashboard: %v", err)
	}
}
