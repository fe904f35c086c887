package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newMiniRedis starts an in-process Redis and returns a client factory
// so tests can model several instances sharing one server.
func newMiniRedis(t *testing.T) (*miniredis.Miniredis, func() *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return rdb
	}
}

func TestRedisStore_SharedAcrossInstances(t *testing.T) {
	_, client := newMiniRedis(t)
	policy := Policy{Window: 15 * time.Minute, Max: 5}
	a := NewRedisStore(client(), policy)
	b := NewRedisStore(client(), policy)
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	stores := []*RedisStore{a, b, a, b, a}
	for i, s := range stores {
		res, err := s.Hit(ctx, "fp", base.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("hit %d: error = %v", i+1, err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d rejected", i+1)
		}
	}

	res, err := b.Hit(ctx, "fp", base.Add(10*time.Second))
	if err != nil {
		t.Fatalf("6th hit: error = %v", err)
	}
	if res.Allowed {
		t.Fatal("6th hit allowed across instances")
	}
	if want := 14*time.Minute + 50*time.Second; res.RetryAfter != want {
		t.Errorf("RetryAfter = %v, want %v", res.RetryAfter, want)
	}
	if res.RetryAfterSeconds() != 890 {
		t.Errorf("RetryAfterSeconds() = %d, want 890", res.RetryAfterSeconds())
	}

	res, err = a.Hit(ctx, "other", base.Add(10*time.Second))
	if err != nil {
		t.Fatalf("other key: error = %v", err)
	}
	if !res.Allowed {
		t.Error("independent key rejected")
	}

	res, err = a.Hit(ctx, "fp", base.Add(policy.Window+time.Millisecond))
	if err != nil {
		t.Fatalf("post-window hit: error = %v", err)
	}
	if !res.Allowed {
		t.Error("hit after the oldest entry left the window rejected")
	}
}

func TestRedisStore_RejectedHitIsNotRecorded(t *testing.T) {
	mr, client := newMiniRedis(t)
	s := NewRedisStore(client(), Policy{Window: time.Minute, Max: 2})
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 4; i++ {
		if _, err := s.Hit(ctx, "fp", base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("hit %d: error = %v", i+1, err)
		}
	}

	members, err := mr.ZMembers(keyPrefix + "fp")
	if err != nil {
		t.Fatalf("ZMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Errorf("stored hits = %d, want 2", len(members))
	}
	if ttl := mr.TTL(keyPrefix + "fp"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}
}

func TestLimiter_FallsBackWhenRedisGoesAway(t *testing.T) {
	mr, client := newMiniRedis(t)
	policy := Policy{Window: time.Minute, Max: 1}
	fallback := NewMemoryStore(policy)
	l := NewLimiter(NewRedisStore(client(), policy), fallback)

	if res := l.Check(context.Background(), "fp"); !res.Allowed {
		t.Fatal("first check rejected")
	}
	if fallback.Len() != 0 {
		t.Errorf("fallback tracked %d keys while redis was healthy", fallback.Len())
	}

	mr.Close()

	if res := l.Check(context.Background(), "fp"); !res.Allowed {
		t.Error("first fallback check rejected")
	}
	if fallback.Len() != 1 {
		t.Errorf("fallback tracked %d keys, want 1", fallback.Len())
	}
	if res := l.Check(context.Background(), "fp"); res.Allowed {
		t.Error("fallback did not enforce the limit")
	}
}
