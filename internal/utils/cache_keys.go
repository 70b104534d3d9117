package utils

import (
	"strings"
	"time"
)

const cacheKeyPrefix = "poolhub:"

// BuildAdminDashboardCacheKey scopes the cached admin metrics to the time zone
// that defines "today", so two deployments with different zones never share an entry.
func BuildAdminDashboardCacheKey(loc *time.Location) string {
	tz := "local"
	if loc != nil {
		tz = strings.ToLower(loc.String())
	}
	return cacheKeyPrefix + "dashboards:admin:v1:tz=" + tz
}

// BuildRateLimitKey namespaces a limiter bucket by route group and client key.
func BuildRateLimitKey(group, client string) string {
	return cacheKeyPrefix + "ratelimit:" + group + ":" + client
}
