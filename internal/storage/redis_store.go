package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a SessionStore backed by Redis. It uses a simple key
// structure:
//
//	<prefix>sess:<session_id>   => JSON-encoded SessionRecord
//	<prefix>idx:all             => SET of all session IDs
//	<prefix>idx:wf:<workflow>   => SET of session IDs for a workflow
//
// The indexes are best-effort; they are always updated on Upsert, and
// List uses set membership for filtering.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore.
// prefix is optional but recommended (e.g. "stepflow:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "stepflow:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) keySession(id string) string { return s.prefix + "sess:" + id }
func (s *RedisStore) keyAll() string              { return s.prefix + "idx:all" }
func (s *RedisStore) keyWorkflow(id string) string {
	return s.prefix + "idx:wf:" + id
}

func (s *RedisStore) Upsert(ctx context.Context, rec *SessionRecord) error {
	data, err := encodeValue(rec)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.keySession(rec.SessionID), data, 0).Err(); err != nil {
		return err
	}

	// Index updates are best-effort; List filters by payload anyway.
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.keyAll(), rec.SessionID)
	pipe.SAdd(ctx, s.keyWorkflow(rec.WorkflowID), rec.SessionID)
	_, _ = pipe.Exec(ctx)

	return nil
}

func (s *RedisStore) Read(ctx context.Context, sessionID string) (*SessionRecord, error) {
	data, err := s.client.Get(ctx, s.keySession(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return decodeValue[*SessionRecord](data)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	rec, err := s.Read(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keySession(sessionID))
	pipe.SRem(ctx, s.keyAll(), sessionID)
	pipe.SRem(ctx, s.keyWorkflow(rec.WorkflowID), sessionID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) List(ctx context.Context, filter SessionFilter) ([]*SessionRecord, error) {
	var (
		ids []string
		err error
	)
	if filter.WorkflowID != "" {
		ids, err = s.client.SMembers(ctx, s.keyWorkflow(filter.WorkflowID)).Result()
	} else {
		ids, err = s.client.SMembers(ctx, s.keyAll()).Result()
	}
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.keySession(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var records []*SessionRecord
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Stale index entry; skip.
				continue
			}
			return nil, err
		}
		rec, err := decodeValue[*SessionRecord](data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
