package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
)

// fakeRedis overrides the commands the cache uses; anything else panics on the nil embed.
type fakeRedis struct {
	redis.Cmdable
	values  map[string]string
	lastTTL time.Duration
	err     error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	val, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

type cachedSummary struct {
	ServiceName string `json:"serviceName"`
	Percent     int    `json:"percent"`
}

func TestRedisCache_SetGet(t *testing.T) {
	client := &fakeRedis{values: map[string]string{}}
	cache := newRedisCache(client, 10*time.Minute)
	ctx := context.Background()

	if err := cache.Set(ctx, "report:summary:dev:billing", cachedSummary{ServiceName: "billing", Percent: 97}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if client.lastTTL != 10*time.Minute {
		t.Errorf("expected ttl to be applied, got %s", client.lastTTL)
	}

	var got cachedSummary
	if err := cache.Get(ctx, "report:summary:dev:billing", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ServiceName != "billing" || got.Percent != 97 {
		t.Errorf("unexpected value %+v", got)
	}
}

func TestRedisCache_Miss(t *testing.T) {
	cache := newRedisCache(&fakeRedis{values: map[string]string{}}, time.Minute)

	var got cachedSummary
	err := cache.Get(context.Background(), "absent", &got)
	if !errors.Is(err, port.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisCache_Errors(t *testing.T) {
	cache := newRedisCache(&fakeRedis{values: map[string]string{}, err: errors.New("connection refused")}, time.Minute)
	ctx := context.Background()

	var got cachedSummary
	if err := cache.Get(ctx, "k", &got); err == nil || errors.Is(err, port.ErrCacheMiss) {
		t.Errorf("expected wrapped get error, got %v", err)
	}
	if err := cache.Set(ctx, "k", cachedSummary{}); err == nil {
		t.Error("expected set error")
	}
	if err := cache.Close(); err != nil {
		t.Errorf("Close() without connection should be a no-op, got %v", err)
	}
}

func TestRedisCache_CorruptValue(t *testing.T) {
	cache := newRedisCache(&fakeRedis{values: map[string]string{"k": "not json"}}, time.Minute)

	var got cachedSummary
	if err := cache.Get(context.Background(), "k", &got); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
