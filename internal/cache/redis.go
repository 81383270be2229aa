package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/emrgen/notebook/internal/compress"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	projectDirtyHash = "project:dirty"
	contentTTL       = 24 * time.Hour
)

func projectContentKey(id string) string {
	return "project:content:" + id
}

// markClean deletes the dirty mark only when the sequence still matches.
var markClean = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

var _ ProjectCache = (*RedisProjectCache)(nil)

type RedisProjectCache struct {
	client  *redis.Client
	encoder compress.Compress
}

// NewRedisClient connects to redis at addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		Protocol: 2, // Connection protocol
	})
}

func NewRedisProjectCache(client *redis.Client, encoder compress.Compress) *RedisProjectCache {
	if encoder == nil {
		encoder = compress.NewGZip()
	}
	return &RedisProjectCache{client: client, encoder: encoder}
}

func (r *RedisProjectCache) GetContent(ctx context.Context, id uuid.UUID) (string, bool, error) {
	res := r.client.Get(ctx, projectContentKey(id.String()))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return "", false, nil
		}
		return "", false, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return "", false, err
	}

	data, err := r.encoder.Decode(buf)
	if err != nil {
		return "", false, err
	}

	return string(data), true, nil
}

func (r *RedisProjectCache) SetContent(ctx context.Context, id uuid.UUID, content string) error {
	data, err := r.encoder.Encode([]byte(content))
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if err := p.Set(ctx, projectContentKey(id.String()), data, contentTTL).Err(); err != nil {
			return err
		}

		return p.HIncrBy(ctx, projectDirtyHash, id.String(), 1).Err()
	})

	return err
}

func (r *RedisProjectCache) DirtyProjects(ctx context.Context) (map[string]int64, error) {
	res := r.client.HGetAll(ctx, projectDirtyHash)
	if res.Err() != nil {
		return nil, res.Err()
	}

	dirty := make(map[string]int64, len(res.Val()))
	for id, v := range res.Val() {
		seq, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			logrus.Warnf("dropping corrupt dirty mark of project %s: %q", id, v)
			r.client.HDel(ctx, projectDirtyHash, id)
			continue
		}
		dirty[id] = seq
	}

	return dirty, nil
}

func (r *RedisProjectCache) MarkClean(ctx context.Context, id uuid.UUID, seq int64) (bool, error) {
	n, err := markClean.Run(ctx, r.client, []string{projectDirtyHash}, id.String(), strconv.FormatInt(seq, 10)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisProjectCache) DeleteProject(ctx context.Context, id uuid.UUID) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if err := p.Del(ctx, projectContentKey(id.String())).Err(); err != nil {
			return err
		}
		return p.HDel(ctx, projectDirtyHash, id.String()).Err()
	})
	return err
}
