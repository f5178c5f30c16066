package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIncrWithTTLStampsFirstIncrementOnly(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCmdable()
	client := &Client{store: fake}

	count, err := client.IncrWithTTL(ctx, "ct:rl:login", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected counter 1, got %d", count)
	}
	if len(fake.expireCalls) != 1 {
		t.Fatalf("expected expire on the first increment")
	}

	count, err = client.IncrWithTTL(ctx, "ct:rl:login", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected counter 2, got %d", count)
	}
	if len(fake.expireCalls) != 1 {
		t.Fatalf("expire must not be re-stamped inside the window")
	}
}

func TestSetNXRespectsExistingKey(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeCmdable()}

	ok, err := client.SetNX(ctx, "ct:lock", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win, got ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "ct:lock", "b", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("second SetNX should lose while the key exists")
	}
}

func TestGetAfterDelReturnsNil(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeCmdable()}

	if err := client.Set(ctx, "ct:session:access:abc", "tok", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "ct:session:access:abc")
	if err != nil || got != "tok" {
		t.Fatalf("expected stored value, got %q err=%v", got, err)
	}

	if err := client.Del(ctx, "ct:session:access:abc"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "ct:session:access:abc"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestAccessSessionKeyShape(t *testing.T) {
	client := &Client{}
	if got := client.AccessSessionKey("abc"); got != "ct:session:access:abc" {
		t.Fatalf("unexpected access session key %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
}

type fakeCmdable struct {
	data        map[string]string
	counters    map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{
		data:     make(map[string]string),
		counters: make(map[string]int64),
	}
}

func (f *fakeCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeCmdable) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expireCalls = append(f.expireCalls, expireCall{key: key, ttl: ttl})
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
