package rtdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agora-dev/agora/internal/logger"
)

const (
	treeKey       = "rtdb:tree"
	seqKey        = "rtdb:seq"
	channelPrefix = "rtdb:changed:"
)

// Redis talks to the hosted tree store. The whole tree lives in one hash
// (field = full path, value = record JSON); a global INCR sequence provides
// snapshot versions and every write publishes "version path" on the channel
// of its top-level collection so subscribers can re-pull the subtree.
type Redis struct {
	rdb *redis.Client
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("rtdb: connecting to store: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Get(ctx context.Context, path string) (Snapshot, error) {
	ver, err := r.currentVersion(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return r.fetch(ctx, path, ver)
}

func (r *Redis) Push(ctx context.Context, path string, value any) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	full := path + "/" + id

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, treeKey, full, b)
	incr := pipe.Incr(ctx, seqKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	r.publish(ctx, uint64(incr.Val()), full)
	return id, nil
}

func (r *Redis) Update(ctx context.Context, path string, fields map[string]any) error {
	existing, err := r.rdb.HGet(ctx, treeKey, path).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var merged map[string]any
	if err := json.Unmarshal(existing, &merged); err != nil {
		return err
	}
	for k, v := range fields {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, treeKey, path, b)
	incr := pipe.Incr(ctx, seqKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	r.publish(ctx, uint64(incr.Val()), path)
	return nil
}

func (r *Redis) Delete(ctx context.Context, path string) error {
	fields, err := r.subtreeFields(ctx, path)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, treeKey, fields...)
	incr := pipe.Incr(ctx, seqKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	r.publish(ctx, uint64(incr.Val()), path)
	return nil
}

func (r *Redis) Subscribe(path string) (<-chan Snapshot, func()) {
	out := make(chan Snapshot, 1)
	pubsub := r.rdb.Subscribe(context.Background(), channelPrefix+topSegment(path))

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			ver, changed, ok := parseChange(msg.Payload)
			if !ok || !within(path, changed) {
				continue
			}
			snap, err := r.fetch(context.Background(), path, ver)
			if err != nil {
				logger.Log.Error("refreshing subtree after change", "path", path, "error", err)
				continue
			}
			// Latest-wins: replace an unread pending snapshot rather
			// than queueing behind it.
			select {
			case <-out:
			default:
			}
			out <- snap
		}
	}()

	return out, func() { _ = pubsub.Close() }
}

func (r *Redis) publish(ctx context.Context, version uint64, changed string) {
	payload := strconv.FormatUint(version, 10) + " " + changed
	if err := r.rdb.Publish(ctx, channelPrefix+topSegment(changed), payload).Err(); err != nil {
		logger.Log.Error("publishing change notice", "path", changed, "error", err)
	}
}

func (r *Redis) currentVersion(ctx context.Context) (uint64, error) {
	v, err := r.rdb.Get(ctx, seqKey).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (r *Redis) fetch(ctx context.Context, path string, version uint64) (Snapshot, error) {
	all, err := r.rdb.HGetAll(ctx, treeKey).Result()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Path: path, Version: version, Records: make(map[string]json.RawMessage)}
	for full, raw := range all {
		if within(path, full) && full != path {
			snap.Records[rel(path, full)] = json.RawMessage(raw)
		}
	}
	return snap, nil
}

func (r *Redis) subtreeFields(ctx context.Context, path string) ([]string, error) {
	all, err := r.rdb.HKeys(ctx, treeKey).Result()
	if err != nil {
		return nil, err
	}
	var fields []string
	for _, full := range all {
		if within(path, full) {
			fields = append(fields, full)
		}
	}
	return fields, nil
}

func parseChange(payload string) (uint64, string, bool) {
	verStr, changed, found := strings.Cut(payload, " ")
	if !found {
		return 0, "", false
	}
	ver, err := strconv.ParseUint(verStr, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return ver, changed, true
}
