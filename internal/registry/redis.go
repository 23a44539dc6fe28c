package registry

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys. Each row is a hash; the set indexes row keys for WHO and the
// address key points at the latest row registered from that address.
const (
	ActiveSessionsKey   = "active_sessions"
	ActiveSessionPrefix = "active_session:"
	ActiveAddressPrefix = "active_session_addr:"
	maxWatchRetries     = 5
)

// Redis is a registry shared through a Redis server. Multi-key writes run in
// MULTI/EXEC so readers never see half of a row.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Dial parses a redis:// URL and returns a registry on a new client.
func Dial(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedis(redis.NewClient(opt)), nil
}

// Client exposes the underlying client (health checks, shutdown).
func (r *Redis) Client() *redis.Client {
	return r.rdb
}

func (r *Redis) Register(ctx context.Context, e Entry) error {
	key := e.Key()
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ActiveSessionPrefix+key)
		pipe.HSet(ctx, ActiveSessionPrefix+key, map[string]interface{}{
			"session_id": e.SessionID,
			"account_id": e.AccountID,
			"login":      e.Login,
			"address":    e.Address,
			"since":      e.Since.UTC().Format(time.RFC3339Nano),
		})
		pipe.SAdd(ctx, ActiveSessionsKey, key)
		pipe.Set(ctx, ActiveAddressPrefix+e.Address, key, 0)
		return nil
	})
	return err
}

func (r *Redis) Deregister(ctx context.Context, accountID int64, address string) error {
	key := rowKey(accountID, address)
	addrKey := ActiveAddressPrefix + address

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, addrKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, ActiveSessionPrefix+key)
			pipe.SRem(ctx, ActiveSessionsKey, key)
			if current == key {
				pipe.Del(ctx, addrKey)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.rdb.Watch(ctx, txf, addrKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

func (r *Redis) ByAddress(ctx context.Context, address string) (*Entry, error) {
	key, err := r.rdb.Get(ctx, ActiveAddressPrefix+address).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fields, err := r.rdb.HGetAll(ctx, ActiveSessionPrefix+key).Result()
	if err != nil {
		return nil, err
	}
	return decodeEntry(fields), nil
}

func (r *Redis) List(ctx context.Context) ([]Entry, error) {
	keys, err := r.rdb.SMembers(ctx, ActiveSessionsKey).Result()
	if err != nil {
		return nil, err
	}
	cmds, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.HGetAll(ctx, ActiveSessionPrefix+k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(cmds))
	for _, cmd := range cmds {
		fields, err := cmd.(*redis.MapStringStringCmd).Result()
		if err != nil {
			return nil, err
		}
		// Rows removed between SMEMBERS and HGETALL come back empty.
		if e := decodeEntry(fields); e != nil {
			entries = append(entries, *e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

// Reset removes every row. Called at startup: rows left behind by a previous
// process do not describe live connections.
func (r *Redis) Reset(ctx context.Context) error {
	entries, err := r.List(ctx)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Del(ctx, ActiveSessionPrefix+e.Key(), ActiveAddressPrefix+e.Address)
		}
		pipe.Del(ctx, ActiveSessionsKey)
		return nil
	})
	return err
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func decodeEntry(fields map[string]string) *Entry {
	if len(fields) == 0 || fields["address"] == "" {
		return nil
	}
	id, err := strconv.ParseInt(fields["account_id"], 10, 64)
	if err != nil {
		return nil
	}
	since, _ := time.Parse(time.RFC3339Nano, fields["since"])
	return &Entry{
		SessionID: fields["session_id"],
		AccountID: id,
		Login:     fields["login"],
		Address:   fields["address"],
		Since:     since,
	}
}
