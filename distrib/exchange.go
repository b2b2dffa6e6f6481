package distrib

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/storage"
)

// Logger matches the minimal structured logger used across the module.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ExchangeOptions configures the Redis exchange.
type ExchangeOptions struct {
	// RedisURL in redis://host:port/db form.
	RedisURL string
	// Namespace prefixes every key, default "perfgraph".
	Namespace string
	// RunID groups payloads belonging to one logical run.
	RunID string
	// TTL bounds how long published payloads live, default 10 minutes.
	TTL time.Duration
	// Logger is optional.
	Logger Logger
}

// RedisExchange publishes a process's graphs under a shared run ID and
// gathers every participant's payloads back for merging. Keys follow
// <namespace>:run:<runID>:<kind>:<process>, with a companion set indexing
// the members of the run.
type RedisExchange struct {
	client    *redis.Client
	namespace string
	runID     string
	ttl       time.Duration
	logger    Logger
}

// NewRedisExchange connects and verifies the server with a ping.
func NewRedisExchange(ctx context.Context, opts ExchangeOptions) (*RedisExchange, error) {
	if opts.RunID == "" {
		return nil, fmt.Errorf("distrib: run ID is required")
	}
	if opts.Namespace == "" {
		opts.Namespace = "perfgraph"
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	redisOpts, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("distrib: invalid redis URL: %w", err)
	}
	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("distrib: redis ping: %w", err)
	}
	return &RedisExchange{
		client:    client,
		namespace: opts.Namespace,
		runID:     opts.RunID,
		ttl:       opts.TTL,
		logger:    opts.Logger,
	}, nil
}

func (x *RedisExchange) key(kind component.Kind, process string) string {
	return fmt.Sprintf("%s:run:%s:%s:%s", x.namespace, x.runID, kind, process)
}

func (x *RedisExchange) indexKey() string {
	return fmt.Sprintf("%s:run:%s:index", x.namespace, x.runID)
}

// Publish stores one kind's graph for this process and registers it in
// the run index.
func (x *RedisExchange) Publish(ctx context.Context, kind component.Kind, process string, g *storage.Graph) error {
	data, err := Encode(kind, process, g)
	if err != nil {
		return err
	}
	pipe := x.client.TxPipeline()
	pipe.Set(ctx, x.key(kind, process), data, x.ttl)
	pipe.SAdd(ctx, x.indexKey(), fmt.Sprintf("%s:%s", kind, process))
	pipe.Expire(ctx, x.indexKey(), x.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("distrib: publish %s/%s: %w", kind, process, err)
	}
	if x.logger != nil {
		x.logger.Debug("published graph", map[string]interface{}{
			"kind":    kind.String(),
			"process": process,
			"nodes":   g.Size(),
			"bytes":   len(data),
		})
	}
	return nil
}

// Gather fetches every published payload of the given kind and merges it
// into dst. Fetches run concurrently; a payload that expired between the
// index read and the get is skipped.
func (x *RedisExchange) Gather(ctx context.Context, kind component.Kind, dst *storage.Global) (int, error) {
	members, err := x.client.SMembers(ctx, x.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("distrib: read run index: %w", err)
	}
	prefix := kind.String() + ":"

	var mu sync.Mutex
	merged := 0
	eg, ctx := errgroup.WithContext(ctx)
	for _, member := range members {
		if !strings.HasPrefix(member, prefix) {
			continue
		}
		process := strings.TrimPrefix(member, prefix)
		eg.Go(func() error {
			data, err := x.client.Get(ctx, x.key(kind, process)).Bytes()
			if err == redis.Nil {
				if x.logger != nil {
					x.logger.Warn("indexed payload expired", map[string]interface{}{
						"kind": kind.String(), "process": process,
					})
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("distrib: fetch %s/%s: %w", kind, process, err)
			}
			_, g, err := Decode(data, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if err := dst.Merge(g, "process/"+process); err != nil {
				return err
			}
			merged++
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return merged, err
	}
	if x.logger != nil {
		x.logger.Info("gather complete", map[string]interface{}{
			"kind": kind.String(), "processes": merged, "nodes": dst.Size(),
		})
	}
	return merged, nil
}

// Clear removes this run's keys. Call it from the coordinating process
// once the merged report is produced.
func (x *RedisExchange) Clear(ctx context.Context) error {
	members, err := x.client.SMembers(ctx, x.indexKey()).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, fmt.Sprintf("%s:run:%s:%s", x.namespace, x.runID, m))
	}
	keys = append(keys, x.indexKey())
	return x.client.Del(ctx, keys...).Err()
}

// Close releases the Redis connection.
func (x *RedisExchange) Close() error {
	return x.client.Close()
}
