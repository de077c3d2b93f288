package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Fixed key prefixes for the two persisted records per owner.
const (
	cartKeyPrefix     = "cart:"
	referralKeyPrefix = "referral:"
)

// Store persists carts and referral codes keyed by owner.
type Store interface {
	LoadCart(ctx context.Context, owner string) (Cart, bool, error)
	SaveCart(ctx context.Context, owner string, c Cart) error
	LoadReferral(ctx context.Context, owner string) (string, error)
	SaveReferral(ctx context.Context, owner, code string) error
}

// RedisStore keeps carts and referral codes in Redis as opaque serialized
// records under fixed keys. Writes are last-write-wins; a single client is
// the only writer for a given owner.
type RedisStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s RedisStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.TTL
}

// LoadCart fetches the serialized cart, reporting whether a record existed.
func (s RedisStore) LoadCart(ctx context.Context, owner string) (Cart, bool, error) {
	if s.R == nil {
		return Cart{}, false, errors.New("cart store not configured")
	}
	data, err := s.R.Get(ctx, cartKeyPrefix+owner).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, false, nil
		}
		return Cart{}, false, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		// A corrupt record degrades to an empty cart rather than failing the
		// session.
		return Cart{}, false, err
	}
	return c, true, nil
}

// SaveCart writes the serialized cart under the owner's fixed key.
func (s RedisStore) SaveCart(ctx context.Context, owner string, c Cart) error {
	if s.R == nil {
		return errors.New("cart store not configured")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, cartKeyPrefix+owner, data, s.ttl()).Err()
}

// LoadReferral fetches the stored referral code, empty when absent.
func (s RedisStore) LoadReferral(ctx context.Context, owner string) (string, error) {
	if s.R == nil {
		return "", errors.New("cart store not configured")
	}
	code, err := s.R.Get(ctx, referralKeyPrefix+owner).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return code, nil
}

// SaveReferral stores the referral code under the owner's fixed key. An empty
// code deletes the record.
func (s RedisStore) SaveReferral(ctx context.Context, owner, code string) error {
	if s.R == nil {
		return errors.New("cart store not configured")
	}
	if code == "" {
		return s.R.Del(ctx, referralKeyPrefix+owner).Err()
	}
	return s.R.Set(ctx, referralKeyPrefix+owner, code, s.ttl()).Err()
}
