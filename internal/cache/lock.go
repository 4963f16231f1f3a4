package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a lock is still held by someone else after the wait
var ErrLockTimeout = errors.New("lock not acquired before timeout")

const lockPollInterval = 50 * time.Millisecond

// releaseScript deletes the lock only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a held per-key lock
type Lock struct {
	c     *Cache
	key   string
	token string
	local *keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// Acquire takes the lock named name, waiting up to wait for a current holder.
// With Redis the lock expires after ttl even if the holder dies; without Redis
// it is an in-process mutex per name.
func (c *Cache) Acquire(ctx context.Context, name string, ttl, wait time.Duration) (*Lock, error) {
	if c.client == nil {
		return c.acquireLocal(ctx, name, wait)
	}

	key := LockKeyPrefix + name
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &Lock{c: c, key: key, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (c *Cache) acquireLocal(ctx context.Context, name string, wait time.Duration) (*Lock, error) {
	c.mu.Lock()
	kl, ok := c.locks[name]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		c.locks[name] = kl
	}
	kl.refs++
	c.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return &Lock{c: c, key: name, local: kl}, nil
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case kl.ch <- struct{}{}:
		return &Lock{c: c, key: name, local: kl}, nil
	case <-timer.C:
		c.dropLocal(name, kl)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		c.dropLocal(name, kl)
		return nil, ctx.Err()
	}
}

func (c *Cache) dropLocal(name string, kl *keyLock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(c.locks, name)
	}
}

// Release gives the lock back. Releasing twice is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if l.local != nil {
		kl := l.local
		l.local = nil
		<-kl.ch
		l.c.dropLocal(l.key, kl)
		return nil
	}
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	return releaseScript.Run(ctx, l.c.client, []string{l.key}, token).Err()
}
