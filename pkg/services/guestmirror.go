package services

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"lumicart-io/api/internal/auth"
	"lumicart-io/api/internal/common"
	"lumicart-io/api/pkg/models"
)

// GuestCartMirror keeps a Redis copy of guest carts so an unauthenticated
// visitor's cart survives page loads. The upstream guest endpoint only
// accepts adds, so the mirror is the read path for guest sessions. A nil
// Redis client turns the mirror into a no-op.
type GuestCartMirror struct {
	redis *redis.Client
}

func NewGuestCartMirror(rdb *redis.Client) *GuestCartMirror {
	return &GuestCartMirror{redis: rdb}
}

func mirrorKey(identity auth.Identity) string {
	return "guest_cart:" + identity.UserID
}

func (m *GuestCartMirror) Save(ctx context.Context, identity auth.Identity, items []models.LineItem) error {
	if m.redis == nil {
		return nil
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "encode guest cart mirror")
	}
	return m.redis.Set(ctx, mirrorKey(identity), payload, common.GUEST_CART_MIRROR_TTL).Err()
}

func (m *GuestCartMirror) Load(ctx context.Context, identity auth.Identity) ([]models.LineItem, error) {
	if m.redis == nil {
		return nil, nil
	}

	raw, err := m.redis.Get(ctx, mirrorKey(identity)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load guest cart mirror")
	}

	var items []models.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.Wrap(err, "decode guest cart mirror")
	}
	return items, nil
}

func (m *GuestCartMirror) Clear(ctx context.Context, identity auth.Identity) error {
	if m.redis == nil {
		return nil
	}
	return m.redis.Del(ctx, mirrorKey(identity)).Err()
}
