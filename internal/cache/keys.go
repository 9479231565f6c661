package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	GroupKeyPrefix     = "group:%s"
	BlacklistKeyPrefix = "blacklist:%s"
	PageKeyPrefix      = "page_cache:"
)

const (
	GroupTTL = 10 * time.Minute
)

func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func PageKey(route string) string {
	return PageKeyPrefix + route
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateGroup(ctx context.Context, slug string) {
	Invalidate(ctx, GroupKey(slug))
}
