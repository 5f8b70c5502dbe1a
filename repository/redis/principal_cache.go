package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

type principalCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewPrincipalCache creates a Redis-backed principal cache.
func NewPrincipalCache(client *redislib.Client, ttl time.Duration) repository.PrincipalCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &principalCache{
		client: client,
		prefix: "principal:",
		ttl:    ttl,
	}
}

func (c *principalCache) Get(ctx context.Context, userID string) (*domain.Principal, error) {
	result, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrPrincipalMissing
		}
		return nil, err
	}

	var principal domain.Principal
	if err := json.Unmarshal([]byte(result), &principal); err != nil {
		return nil, err
	}
	if principal.ID == "" {
		return nil, domain.ErrPrincipalMissing
	}
	return &principal, nil
}

func (c *principalCache) Save(ctx context.Context, principal *domain.Principal) error {
	if principal == nil || principal.ID == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(principal)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(principal.ID), payload, c.ttl).Err()
}

func (c *principalCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *principalCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
