package repository

import (
	"context"
	"fmt"
	"time"

	"observatory-backend/pkg/cache"

	"github.com/rs/zerolog/log"
)

// DefaultNicknameTTL dùng khi caller không truyền TTL
const DefaultNicknameTTL = time.Hour

// nicknameCache implement "Cache-Aside Pattern" cho username -> nickname.
// Lỗi cache không bao giờ làm fail request: miss thì đọc database.
type nicknameCache struct {
	cache cache.Cache
	ttl   time.Duration
}

func newNicknameCache(c cache.Cache, ttl time.Duration) nicknameCache {
	if ttl <= 0 {
		ttl = DefaultNicknameTTL
	}
	return nicknameCache{cache: c, ttl: ttl}
}

// Cache key naming convention: "entity:field:id"
func nicknameKey(username string) string {
	return fmt.Sprintf("user:nickname:%s", username)
}

func (n nicknameCache) get(ctx context.Context, username string) (string, bool) {
	if n.cache == nil {
		return "", false
	}

	var nickname string
	found, err := n.cache.Get(ctx, nicknameKey(username), &nickname)
	if err != nil {
		log.Debug().Err(err).Str("username", username).Msg("nickname cache read failed")
		return "", false
	}
	return nickname, found && nickname != ""
}

func (n nicknameCache) set(ctx context.Context, username, nickname string) {
	if n.cache == nil {
		return
	}
	if err := n.cache.Set(ctx, nicknameKey(username), nickname, n.ttl); err != nil {
		log.Debug().Err(err).Str("username", username).Msg("nickname cache write failed")
	}
}
