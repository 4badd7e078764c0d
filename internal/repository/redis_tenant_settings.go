package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"SalesCast/internal/domain/models"
	"SalesCast/pkg/cache"
	applogger "SalesCast/pkg/logger"
)

// settingsKeyFmt is the key written by the tenant-settings service. It is
// read verbatim, without this service's cache prefix.
const settingsKeyFmt = "tenant:%s:settings:ml"

// RedisTenantSettings reads per-tenant ML override documents from Redis and
// memoizes them in a short-lived local cache. Absence of a document is a
// valid state, also memoized, so hot tenants do not hammer Redis.
type RedisTenantSettings struct {
	client *redis.Client
	local  cache.Store
	ttl    time.Duration
	l      *applogger.Logger
}

// cachedOverride wraps the override so a memoized "no override" stays
// distinguishable from a cache miss.
type cachedOverride struct {
	Override *models.MLOverride `json:"override"`
}

func NewRedisTenantSettings(client *redis.Client, local cache.Store, ttl time.Duration) *RedisTenantSettings {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisTenantSettings{client: client, local: local, ttl: ttl}
}

// SetLogger injects a structured logger.
func (s *RedisTenantSettings) SetLogger(l *applogger.Logger) { s.l = l }

// MLOverride returns the tenant override or (nil, nil) when the tenant has
// none.
func (s *RedisTenantSettings) MLOverride(ctx context.Context, tenantID string) (*models.MLOverride, error) {
	key := fmt.Sprintf(settingsKeyFmt, tenantID)

	if s.local != nil {
		var cached cachedOverride
		if err := s.local.Get(ctx, key, &cached); err == nil {
			return cached.Override, nil
		}
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.memoize(ctx, key, nil)
			return nil, nil
		}
		return nil, fmt.Errorf("tenant settings: %w", err)
	}

	var override models.MLOverride
	if err := json.Unmarshal(raw, &override); err != nil {
		// A malformed document behaves like no override; defaults still
		// produce a usable run.
		if s.l != nil {
			s.l.Warn("tenant settings document malformed, ignoring",
				applogger.String("tenant_id", tenantID), applogger.Error(err))
		}
		s.memoize(ctx, key, nil)
		return nil, nil
	}

	s.memoize(ctx, key, &override)
	return &override, nil
}

func (s *RedisTenantSettings) memoize(ctx context.Context, key string, override *models.MLOverride) {
	if s.local == nil {
		return
	}
	_ = s.local.Set(ctx, key, cachedOverride{Override: override}, s.ttl)
}
