// Command autologin-probe runs a single auto-login reconciliation against a
// live Redis instance and account API, printing the terminal Result. It is
// intended for smoke-testing deployments and deep-link tokens.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	autologin "github.com/elgranjm3000/controlagenda-sub000"
	"github.com/elgranjm3000/controlagenda-sub000/restapi"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		token     = flag.String("token", "", "temporary auto-login token (required)")
		apiBase   = flag.String("api", "", "account API base URL (required)")
		redisAddr = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix    = flag.String("prefix", "ca", "session key prefix")
		settle    = flag.Duration("settle", 0, "settle delay after each clear before read-back")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall probe timeout")
		audit     = flag.Bool("audit", false, "write audit events as JSON lines to stderr")
	)
	flag.Parse()

	if *token == "" || *apiBase == "" {
		fmt.Fprintln(os.Stderr, "token and api are required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	api, err := restapi.NewClient(*apiBase, restapi.WithUserAgent("autologin-probe"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid api base: %v\n", err)
		os.Exit(2)
	}

	cfg := autologin.DefaultConfig()
	cfg.Session.RedisPrefix = *prefix
	cfg.Reconciler.SettleDelay = *settle

	builder := autologin.New().
		WithConfig(cfg).
		WithRedis(client).
		WithAccountAPI(api)
	if *audit {
		builder = builder.WithAuditSink(autologin.NewJSONWriterSink(os.Stderr))
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	start := time.Now()
	result, err := engine.Reconcile(ctx, *token)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile rejected: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("status=%s redirect=%s email=%s attempt=%s elapsed=%s\n",
		result.Status,
		result.Redirect,
		result.Email,
		result.AttemptID,
		elapsed,
	)
	if result.Reason != "" {
		fmt.Printf("reason=%s\n", result.Reason)
	}
	if result.Cause != nil {
		fmt.Printf("cause=%v\n", result.Cause)
	}

	if snap, serr := engine.DebugSession(ctx); serr == nil {
		fmt.Printf("session: email=%s token_prefix=%s has_user=%t age_ms=%d\n",
			snap.Email, snap.TokenPrefix, snap.HasUser, snap.AgeMillis)
	}

	if result.Redirect != autologin.RedirectDashboard {
		os.Exit(1)
	}
}
