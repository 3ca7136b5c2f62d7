// Package redis stores long-term facts in Redis so several service replicas
// can share one memory.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sandevgo/riskmon/internal/core"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// FactsRepo implements core.FactRepository.
//
// Layout per user: a hash of id -> JSON record, a sorted set of ids scored
// by creation time in microseconds and an insertion counter. Records carry
// their counter value so facts created in the same microsecond keep
// insertion order. A set of user ids backs CountUsers.
type FactsRepo struct {
	client *redis.Client
	prefix string
}

type record struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float32         `json:"embedding,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Seq       int64             `json:"seq"`
}

func NewFactsRepo(ctx context.Context, opts Options) (*FactsRepo, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "memory"
	}
	return &FactsRepo{client: client, prefix: prefix}, nil
}

func (r *FactsRepo) Close() error {
	return r.client.Close()
}

func (r *FactsRepo) factsKey(userID string) string { return r.prefix + ":facts:" + userID }
func (r *FactsRepo) orderKey(userID string) string { return r.prefix + ":facts:" + userID + ":order" }
func (r *FactsRepo) seqKey(userID string) string   { return r.prefix + ":facts:" + userID + ":seq" }
func (r *FactsRepo) usersKey() string              { return r.prefix + ":users" }

func (r *FactsRepo) PutFact(ctx context.Context, userID string, fact core.Fact) (bool, error) {
	prev, err := r.client.HGet(ctx, r.factsKey(userID), fact.ID).Result()
	created := errors.Is(err, redis.Nil)
	if err != nil && !created {
		return false, fmt.Errorf("failed to read fact: %w", err)
	}

	rec := record{
		ID:        fact.ID,
		Text:      fact.Text,
		Metadata:  fact.Metadata,
		Embedding: fact.Embedding,
		CreatedAt: fact.CreatedAt.UTC(),
	}
	if created {
		rec.Seq, err = r.client.Incr(ctx, r.seqKey(userID)).Result()
		if err != nil {
			return false, fmt.Errorf("failed to allocate fact sequence: %w", err)
		}
	} else {
		var old record
		if err := json.Unmarshal([]byte(prev), &old); err == nil {
			rec.CreatedAt = old.CreatedAt
			rec.Seq = old.Seq
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to marshal fact: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.factsKey(userID), fact.ID, data)
		pipe.ZAddNX(ctx, r.orderKey(userID), redis.Z{
			Score:  float64(rec.CreatedAt.UnixMicro()),
			Member: fact.ID,
		})
		pipe.SAdd(ctx, r.usersKey(), userID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to store fact: %w", err)
	}
	return created, nil
}

func (r *FactsRepo) ListFacts(ctx context.Context, userID string) ([]core.Fact, error) {
	ids, err := r.client.ZRange(ctx, r.orderKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list fact ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	vals, err := r.client.HMGet(ctx, r.factsKey(userID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load facts: %w", err)
	}

	recs := make([]record, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Order entry without data, left behind by a concurrent delete.
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode fact: %w", err)
		}
		recs = append(recs, rec)
	}

	// The sorted set breaks equal scores by member, not by insertion.
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Seq < b.Seq
	})

	facts := make([]core.Fact, len(recs))
	for i, rec := range recs {
		facts[i] = core.Fact{
			ID:        rec.ID,
			Text:      rec.Text,
			Metadata:  rec.Metadata,
			Embedding: rec.Embedding,
			CreatedAt: rec.CreatedAt,
		}
	}
	return facts, nil
}

func (r *FactsRepo) DeleteFacts(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.HDel(ctx, r.factsKey(userID), ids...)
		pipe.ZRem(ctx, r.orderKey(userID), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete facts: %w", err)
	}

	if err := r.forgetIfEmpty(ctx, userID); err != nil {
		return int(del.Val()), err
	}
	return int(del.Val()), nil
}

func (r *FactsRepo) DeleteFactsBefore(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	ids, err := r.client.ZRangeByScore(ctx, r.orderKey(userID), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMicro(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to find expired facts: %w", err)
	}
	return r.DeleteFacts(ctx, userID, ids)
}

func (r *FactsRepo) ClearFacts(ctx context.Context, userID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.factsKey(userID), r.orderKey(userID), r.seqKey(userID))
		pipe.SRem(ctx, r.usersKey(), userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear facts: %w", err)
	}
	return nil
}

func (r *FactsRepo) CountUsers(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.usersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return int(n), nil
}

func (r *FactsRepo) SweepFacts(ctx context.Context, cutoff time.Time) (int, error) {
	users, err := r.client.SMembers(ctx, r.usersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	total := 0
	for _, u := range users {
		n, err := r.DeleteFactsBefore(ctx, u, cutoff)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (r *FactsRepo) forgetIfEmpty(ctx context.Context, userID string) error {
	n, err := r.client.HLen(ctx, r.factsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to count facts: %w", err)
	}
	if n == 0 {
		if err := r.client.SRem(ctx, r.usersKey(), userID).Err(); err != nil {
			return fmt.Errorf("failed to forget user: %w", err)
		}
	}
	return nil
}
