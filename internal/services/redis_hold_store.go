package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// releaseScript deletes the hold key only when the caller still owns
// it, so a holder whose hold expired and was re-granted to someone
// else cannot release the new owner's hold.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisHoldStore is a HoldStore backed by Redis, for deployments that
// run more than one API instance. SET NX with a TTL gives the same
// atomic test-and-set as the in-memory store; Redis key expiry
// replaces the lazy sweep.
type RedisHoldStore struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisHoldStore creates a Redis-backed hold store
func NewRedisHoldStore(client *redis.Client, logger *logrus.Logger) *RedisHoldStore {
	return &RedisHoldStore{
		client: client,
		logger: logger,
	}
}

// holdKey builds the Redis key for a slot hold. Every component has a
// fixed format (UUIDs and an ISO date), so the colon-joined form is
// collision free.
func holdKey(key models.SlotHoldKey) string {
	return fmt.Sprintf("slot_hold:%s:%s:%s:%s", key.CenterID, key.WorkDate, key.SlotID, key.TechnicianID)
}

// TryHold implements HoldStore
func (s *RedisHoldStore) TryHold(ctx context.Context, key models.SlotHoldKey, holderID uuid.UUID, ttl time.Duration) (bool, time.Time, error) {
	acquired, err := s.client.SetNX(ctx, holdKey(key), holderID.String(), ttl).Result()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to acquire slot hold: %w", err)
	}
	if !acquired {
		return false, time.Time{}, nil
	}

	expiresAt := time.Now().Add(ttl)

	s.logger.WithFields(logrus.Fields{
		"hold_key":   holdKey(key),
		"holder_id":  holderID,
		"expires_at": expiresAt,
	}).Debug("Slot hold granted")

	return true, expiresAt, nil
}

// Release implements HoldStore
func (s *RedisHoldStore) Release(ctx context.Context, key models.SlotHoldKey, holderID uuid.UUID) (bool, error) {
	deleted, err := releaseScript.Run(ctx, s.client, []string{holdKey(key)}, holderID.String()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to release slot hold: %w", err)
	}

	return deleted == 1, nil
}

// IsHeld implements HoldStore
func (s *RedisHoldStore) IsHeld(ctx context.Context, key models.SlotHoldKey) (bool, error) {
	count, err := s.client.Exists(ctx, holdKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check slot hold: %w", err)
	}

	return count == 1, nil
}

// ListHolds implements HoldStore
func (s *RedisHoldStore) ListHolds(ctx context.Context, centerID uuid.UUID, workDate string) ([]models.SlotHold, error) {
	pattern := fmt.Sprintf("slot_hold:%s:%s:*", centerID, workDate)

	holds := make([]models.SlotHold, 0)
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()

		key, ok := parseHoldKey(redisKey)
		if !ok {
			s.logger.WithField("hold_key", redisKey).Warn("Skipping malformed slot hold key")
			continue
		}

		holder, err := s.client.Get(ctx, redisKey).Result()
		if err == redis.Nil {
			// Expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read slot hold: %w", err)
		}

		holderID, err := uuid.Parse(holder)
		if err != nil {
			s.logger.WithField("hold_key", redisKey).Warn("Skipping slot hold with malformed holder")
			continue
		}

		ttl, err := s.client.PTTL(ctx, redisKey).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read slot hold TTL: %w", err)
		}
		if ttl <= 0 {
			continue
		}

		holds = append(holds, models.SlotHold{
			Key:       key,
			HolderID:  holderID,
			ExpiresAt: time.Now().Add(ttl),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan slot holds: %w", err)
	}

	return holds, nil
}

// parseHoldKey recovers the structured key from its Redis form
func parseHoldKey(redisKey string) (models.SlotHoldKey, bool) {
	parts := strings.Split(redisKey, ":")
	if len(parts) != 5 || parts[0] != "slot_hold" {
		return models.SlotHoldKey{}, false
	}

	var key models.SlotHoldKey
	var err error

	if key.CenterID, err = uuid.Parse(parts[1]); err != nil {
		return models.SlotHoldKey{}, false
	}
	key.WorkDate = parts[2]
	if key.SlotID, err = uuid.Parse(parts[3]); err != nil {
		return models.SlotHoldKey{}, false
	}
	if key.TechnicianID, err = uuid.Parse(parts[4]); err != nil {
		return models.SlotHoldKey{}, false
	}

	return key, true
}
