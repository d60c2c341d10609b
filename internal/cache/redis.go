package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/config"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps recently issued and scanned applicants hot, keyed by pass
// id. Records are immutable after issuance so entries never go stale, only
// cold.
type RedisCache struct {
	client       *redis.Client
	applicantTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, applicantTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		applicantTTL: applicantTTL,
	}
}

// GetApplicant returns (nil, nil) on a miss.
func (c *RedisCache) GetApplicant(ctx context.Context, passID string) (*domain.Applicant, error) {
	data, err := c.client.Get(ctx, applicantKey(passID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var applicant domain.Applicant
	if err := json.Unmarshal(data, &applicant); err != nil {
		return nil, err
	}
	return &applicant, nil
}

func (c *RedisCache) SetApplicant(ctx context.Context, applicant *domain.Applicant) error {
	payload, err := json.Marshal(applicant)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, applicantKey(applicant.PassID), payload, c.applicantTTL).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func applicantKey(passID string) string {
	return fmt.Sprintf("cache:applicant:pass:%s", passID)
}
