package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeList 以切片模拟 Redis list，下标 0 为左端。
type fakeList struct {
	mu     sync.Mutex
	items  []string
	pushes int
}

func (f *fakeList) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.items = append([]string{v.(string)}, f.items...)
	}
	f.pushes++
	return redis.NewIntResult(int64(len(f.items)), nil)
}

func (f *fakeList) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	deadline := time.Now().Add(timeout)
	for {
		f.mu.Lock()
		if n := len(f.items); n > 0 {
			last := f.items[n-1]
			f.items = f.items[:n-1]
			f.mu.Unlock()
			return redis.NewStringSliceResult([]string{keys[0], last}, nil)
		}
		f.mu.Unlock()
		if ctx.Err() != nil {
			return redis.NewStringSliceResult(nil, ctx.Err())
		}
		if time.Now().After(deadline) {
			return redis.NewStringSliceResult(nil, redis.Nil)
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeList) Close() error { return nil }

func TestRedisQueueFailedEntryGoesToBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	list := &fakeList{}
	queue := newRedisQueue(list, RedisQueueConfig{BlockWait: 20 * time.Millisecond, RetryBackoff: 5 * time.Millisecond})

	if err := queue.Publish(ctx, "bad"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := queue.Publish(ctx, "good"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	var mu sync.Mutex
	var calls []string
	badFailures := 0
	done := make(chan struct{})
	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		_ = queue.Consume(consumeCtx, 1, func(_ context.Context, entryID string) error {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, entryID)
			if entryID == "bad" && badFailures < 3 {
				badFailures++
				return errors.New("store unavailable")
			}
			if entryID == "bad" {
				close(done)
			}
			return nil
		})
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("entries were not drained: %v", calls)
	}
	stop()

	mu.Lock()
	defer mu.Unlock()
	if len(calls) < 2 || calls[0] != "bad" || calls[1] != "good" {
		t.Fatalf("expected good right after the first failure, got %v", calls)
	}
	want := []string{"bad", "good", "bad", "bad", "bad"}
	if len(calls) != len(want) {
		t.Fatalf("unexpected call sequence: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("unexpected call sequence: %v", calls)
		}
	}
	list.mu.Lock()
	pushes := list.pushes
	list.mu.Unlock()
	if pushes != 2+3 {
		t.Fatalf("expected 2 publishes and 3 requeues, got %d pushes", pushes)
	}
}

func TestRedisQueueBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	list := &fakeList{}
	queue := newRedisQueue(list, RedisQueueConfig{BlockWait: 20 * time.Millisecond, RetryBackoff: time.Hour})
	if err := queue.Publish(ctx, "bad"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	failed := make(chan struct{}, 1)
	result := make(chan error, 1)
	go func() {
		result <- queue.Consume(ctx, 1, func(context.Context, string) error {
			failed <- struct{}{}
			return errors.New("store unavailable")
		})
	}()

	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatalf("handler was not called")
	}
	cancel()

	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer did not stop during backoff")
	}
}
