package journal

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	xerrors "AssetGrid-Chain/internal/errors"
)

// RedisQueueConfig 描述 Redis 队列的连接参数。
type RedisQueueConfig struct {
	Address      string
	Password     string
	DB           int
	Queue        string
	BlockWait    time.Duration
	RetryBackoff time.Duration
}

// listClient 是 RedisQueue 用到的 list 命令子集，*redis.Client 满足该接口。
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Close() error
}

// RedisQueue 使用 Redis list 实现队列，LPUSH 投递、BRPOP 消费。
type RedisQueue struct {
	client  listClient
	queue   string
	wait    time.Duration
	backoff time.Duration
}

// NewRedisQueue 创建 Redis 队列实例。
func NewRedisQueue(ctx context.Context, cfg RedisQueueConfig) (*RedisQueue, error) {
	if cfg.Address == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "连接 Redis 失败")
	}
	return newRedisQueue(client, cfg), nil
}

func newRedisQueue(client listClient, cfg RedisQueueConfig) *RedisQueue {
	queue := cfg.Queue
	if queue == "" {
		queue = "assetgrid:journal"
	}
	wait := cfg.BlockWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &RedisQueue{client: client, queue: queue, wait: wait, backoff: backoff}
}

// Publish 将记录 ID 投递到 Redis。
func (q *RedisQueue) Publish(ctx context.Context, entryID string) error {
	if err := q.client.LPush(ctx, q.queue, entryID).Err(); err != nil {
		return xerrors.Wrap(CodePublishFailed, err, "Redis 发布记录失败")
	}
	return nil
}

// Consume 通过 BRPOP 从 Redis 获取记录 ID。处理失败的 ID 以 LPUSH 放回队尾，
// 工作协程等待 backoff 后再继续取下一条。
func (q *RedisQueue) Consume(ctx context.Context, workerCount int, handler Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	errCh := make(chan error, workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			for {
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				values, err := q.client.BRPop(ctx, q.wait, q.queue).Result()
				if err != nil {
					if errors.Is(err, redis.Nil) {
						continue
					}
					if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
						errCh <- err
						return
					}
					errCh <- xerrors.Wrap(xerrors.CodeQueueFailure, err, "Redis 取记录失败")
					return
				}
				if len(values) != 2 {
					continue
				}
				entryID := values[1]
				if handlerErr := handler(ctx, entryID); handlerErr != nil {
					_ = q.client.LPush(ctx, q.queue, entryID).Err()
					if !sleepCtx(ctx, q.backoff) {
						errCh <- ctx.Err()
						return
					}
				}
			}
		}()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close 关闭 Redis 连接。
func (q *RedisQueue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

var _ Queue = (*RedisQueue)(nil)
