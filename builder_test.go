package autologin

import (
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBuildRequiresRedis(t *testing.T) {
	_, err := New().
		WithAccountAPI(newFakeAccountAPI()).
		Build()
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("expected redis requirement error, got %v", err)
	}
}

func TestBuildRequiresAccountAPI(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	_, err = New().WithRedis(rdb).Build()
	if err == nil || !strings.Contains(err.Error(), "account api") {
		t.Fatalf("expected account api requirement error, got %v", err)
	}
}

func TestBuildValidatesConfig(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := DefaultConfig()
	cfg.Session.RedisPrefix = ""

	_, err = New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountAPI(newFakeAccountAPI()).
		Build()
	if err == nil {
		t.Fatalf("expected config validation error")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := New().WithRedis(rdb).WithAccountAPI(newFakeAccountAPI())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatalf("expected second build to fail")
	}
}

func TestBuildDefaults(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	engine, err := New().
		WithRedis(rdb).
		WithAccountAPI(newFakeAccountAPI()).
		Build()
	if err != nil {
		t.Fatalf("build with defaults: %v", err)
	}
	defer engine.Close()

	if engine.clock == nil {
		t.Fatalf("expected default real clock")
	}
	if engine.logger == nil {
		t.Fatalf("expected default nop logger")
	}
	if engine.audit == nil {
		t.Fatalf("audit defaults on, expected dispatcher")
	}
	if !engine.metrics.Enabled() {
		t.Fatalf("metrics default on")
	}
	if engine.Phase() != PhaseIdle {
		t.Fatalf("new engine must be idle, got %s", engine.Phase())
	}
}

func TestBuildMetricsToggles(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	engine, err := New().
		WithRedis(rdb).
		WithAccountAPI(newFakeAccountAPI()).
		WithMetricsEnabled(false).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if engine.metrics.Enabled() {
		t.Fatalf("expected metrics disabled")
	}
}
