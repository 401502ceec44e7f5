package memberships

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/enums"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
	pkgredis "github.com/aquamesh/aquaview-backend/pkg/redis"
)

// noRole marks a cached negative lookup.
const noRole = "-"

const defaultCacheTTL = 300 * time.Second

type roleSource interface {
	RoleOf(ctx context.Context, userID string, orgID uuid.UUID) (enums.MemberRole, error)
}

// CachedChecker answers membership questions from Redis, falling back to the
// database on a miss. Redis failures degrade to direct lookups.
type CachedChecker struct {
	source roleSource
	kv     pkgredis.KV
	ttl    time.Duration
	logg   *logger.Logger
}

// NewCachedChecker wraps source with a Redis read-through cache. A nil kv
// disables caching.
func NewCachedChecker(source roleSource, kv pkgredis.KV, ttl time.Duration, logg *logger.Logger) *CachedChecker {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedChecker{source: source, kv: kv, ttl: ttl, logg: logg}
}

// HasRole implements authz.MembershipChecker.
func (c *CachedChecker) HasRole(ctx context.Context, userID string, orgID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	role, err := c.role(ctx, userID, orgID)
	if err != nil {
		return false, err
	}
	if role == "" {
		return false, nil
	}
	if len(roles) == 0 {
		return true, nil
	}
	for _, want := range roles {
		if want == role {
			return true, nil
		}
	}
	return false, nil
}

func (c *CachedChecker) role(ctx context.Context, userID string, orgID uuid.UUID) (enums.MemberRole, error) {
	if c.kv == nil {
		return c.source.RoleOf(ctx, userID, orgID)
	}

	key := c.kv.MembershipKey(userID, orgID.String())
	cached, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		if cached == noRole {
			return "", nil
		}
		return enums.MemberRole(cached), nil
	case !errors.Is(err, pkgredis.Nil):
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "membership cache read failed")
	}

	role, err := c.source.RoleOf(ctx, userID, orgID)
	if err != nil {
		return "", err
	}
	value := noRole
	if role != "" {
		value = role.String()
	}
	if err := c.kv.Set(ctx, key, value, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "membership cache write failed")
	}
	return role, nil
}

// Invalidate drops the cached role for a user/organization pair.
func (c *CachedChecker) Invalidate(ctx context.Context, userID string, orgID uuid.UUID) {
	if c == nil || c.kv == nil {
		return
	}
	key := c.kv.MembershipKey(userID, orgID.String())
	if err := c.kv.Del(ctx, key); err != nil {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "membership cache invalidation failed", err)
	}
}
