// internal/journal/redis.go
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cmatc13/ledgerflow/pkg/errors"
)

const (
	// Submission key prefix for journaled entries
	submissionKeyPrefix = "ledgerflow:submission:"

	// Journaled entries expire after this horizon
	entryTTL = 7 * 24 * time.Hour
)

// RedisJournal is a Redis-backed Journal for the long-running submitter
type RedisJournal struct {
	Client *redis.Client
}

// NewRedisJournal creates a Redis-backed journal and verifies connectivity
func NewRedisJournal(addr, password string, db int) (*RedisJournal, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisJournal{Client: client}, nil
}

// Record implements Journal
func (j *RedisJournal) Record(ctx context.Context, entry Entry) error {
	key := submissionKeyPrefix + entry.Address

	fields := map[string]interface{}{
		"submission_id": entry.SubmissionID,
		"address":       entry.Address,
		"state":         entry.State,
		"updated_at":    entry.UpdatedAt.Format(time.RFC3339Nano),
	}

	if err := j.Client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to journal submission %s: %w", entry.Address, err)
	}
	return j.Client.Expire(ctx, key, entryTTL).Err()
}

// Get implements Journal
func (j *RedisJournal) Get(ctx context.Context, address string) (*Entry, error) {
	fields, err := j.Client.HGetAll(ctx, submissionKeyPrefix+address).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal for %s: %w", address, err)
	}
	if len(fields) == 0 {
		return nil, errors.ErrNotFound
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		updatedAt = time.Time{}
	}

	return &Entry{
		SubmissionID: fields["submission_id"],
		Address:      fields["address"],
		State:        fields["state"],
		UpdatedAt:    updatedAt,
	}, nil
}

// Ping verifies the Redis connection, for health checks
func (j *RedisJournal) Ping(ctx context.Context) error {
	return j.Client.Ping(ctx).Err()
}

// Close implements Journal
func (j *RedisJournal) Close() error {
	return j.Client.Close()
}
