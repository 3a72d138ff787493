// Package lock provides per-key mutual exclusion, backed by Redis when the
// service runs as several replicas and by process memory otherwise.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	xerrors "marketplace-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker acquires a named lock. The returned context is derived from ctx and is
// cancelled once the lock is no longer held; work done under the lock must use it.
// The returned unlock func is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (held context.Context, unlock func(), err error)
}

// ErrLeaseLost is the cancellation cause of a held context whose lease could not be renewed.
var ErrLeaseLost = errors.New("lock lease lost")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only if the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

const DefaultTTL = 15 * time.Second

// RedisLocker is a lease-based lock shared by all replicas. While a lock is held
// the lease is renewed every ttl/3; if a renewal fails the held context is
// cancelled before the lease can run out.
type RedisLocker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	retry  time.Duration
	renew  time.Duration
	logger *zap.Logger
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{
		client: client,
		prefix: "lock:",
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		renew:  ttl / 3,
		logger: logger,
	}
}

// TTL reports the lease length.
func (l *RedisLocker) TTL() time.Duration {
	return l.ttl
}

// Lock spins on SET NX PX until it wins or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	k := l.prefix + key
	token := ulid.Make().String()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, fmt.Errorf("lock %s: %w: %v", key, xerrors.ErrBusy, ctx.Err())
			}
			return nil, nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("lock %s: %w: %v", key, xerrors.ErrBusy, ctx.Err())
		case <-ticker.C:
		}
	}

	held, cancel := context.WithCancelCause(ctx)
	stopped := make(chan struct{})
	go l.keepAlive(held, cancel, key, k, token, stopped)

	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel(nil)
			<-stopped
			// Release even if the request context is already gone.
			rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer rcancel()
			if err := releaseScript.Run(rctx, l.client, []string{k}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

// keepAlive renews the lease until held is done. Each renewal is bounded by the
// renew interval so a stalled Redis cancels the holder while the lease is still valid.
func (l *RedisLocker) keepAlive(held context.Context, cancel context.CancelCauseFunc, key, k, token string, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(l.renew)
	defer ticker.Stop()

	for {
		select {
		case <-held.Done():
			return
		case <-ticker.C:
		}

		rctx, rcancel := context.WithTimeout(context.WithoutCancel(held), l.renew)
		n, err := extendScript.Run(rctx, l.client, []string{k}, token, l.ttl.Milliseconds()).Int()
		rcancel()
		if held.Err() != nil {
			return
		}
		if err != nil || n == 0 {
			l.logger.Warn("lock lease lost", zap.String("key", key), zap.Error(err))
			cancel(fmt.Errorf("lock %s: %w", key, ErrLeaseLost))
			return
		}
	}
}

// LocalLocker is an in-process keyed mutex that honours context cancellation.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, nil, fmt.Errorf("lock %s: %w: %v", key, xerrors.ErrBusy, ctx.Err())
	}

	held, cancel := context.WithCancel(ctx)
	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *LocalLocker) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Size reports how many keys are currently held or awaited.
func (l *LocalLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
