// Package replycache correlates a cross-node synchronous Ask with its
// eventual reply. The asking node still blocks on its own ReplyChannel (see
// actor.ReplyChannel); the answering node uses this store, keyed by the
// request's SessionID with a TTL, to remember the asking node's address
// (remote.Link puts it when the Ask arrives and takes it when the reply is
// sent), so the reply can be routed back without a directory lookup. Adapted from the teacher's
// infra/redis/redisx package (same single-node/Sentinel dual setup), widened
// from a plain Get/Set onto the Put/Take contract this protocol needs.
package replycache

import (
	"context"
	"encoding/gob"
	"bytes"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/phuhao00/actormesh/config"
)

const keyPrefix = "actormesh:reply:"

// Store puts and takes gob-encoded values, keyed by SessionID, with an
// expiry so an entry that nobody ever collects doesn't linger forever.
type Store struct {
	client *redis.Client
}

// New connects a Store the same way the teacher's NewRedisClient does:
// Sentinel if MasterName/SentinelAddrs are set, otherwise a single-node
// client at Addr.
func New(cfg config.RedisConfig) (*Store, error) {
	if cfg.MasterName != "" && len(cfg.SentinelAddrs) > 0 {
		rdb := redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.SentinelAddrs,
			Password:      cfg.Password,
			DB:            cfg.DB,
		})
		return &Store{client: rdb}, nil
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("replycache: redis configuration is insufficient: need addr or master_name+sentinel_addrs")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: rdb}, nil
}

// GetName implements runtime.Module.
func (s *Store) GetName() string { return "replycache" }

// OnStart implements runtime.Module, verifying connectivity with a ping.
func (s *Store) OnStart(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("replycache: ping: %w", err)
	}
	return nil
}

// OnStop implements runtime.Module.
func (s *Store) OnStop(ctx context.Context) error {
	return s.client.Close()
}

// Put stores body under session, to be collected once by Take within ttl.
func (s *Store) Put(ctx context.Context, session string, body any, ttl time.Duration) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&body); err != nil {
		return fmt.Errorf("replycache: encode reply for %s: %w", session, err)
	}
	if err := s.client.Set(ctx, keyPrefix+session, buf.Bytes(), ttl).Err(); err != nil {
		return fmt.Errorf("replycache: put %s: %w", session, err)
	}
	return nil
}

// Take retrieves and deletes the value stored under session, if any. ok is
// false (with a nil error) if nothing is stored under session: never put,
// expired, or already taken.
func (s *Store) Take(ctx context.Context, session string) (body any, ok bool, err error) {
	key := keyPrefix + session
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("replycache: take %s: %w", session, err)
	}
	s.client.Del(ctx, key)

	var decoded any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("replycache: decode reply for %s: %w", session, err)
	}
	return decoded, true, nil
}
