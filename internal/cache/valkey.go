// Package cache provides Valkey (Redis-compatible) client initialization
// and the namespaced memo caches used for derived theming values.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// dialTimeout bounds the initial connectivity check.
const dialTimeout = 5 * time.Second

// ConnectValkey opens a Valkey client and pings it before returning. The
// client is closed again when the ping fails.
func ConnectValkey(ctx context.Context, host, port, password string) (*redis.Client, error) {
	addr := net.JoinHostPort(host, port)
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		ClientName: "cloudtheme",
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", addr, err)
	}

	slog.Info("valkey connected", "addr", addr)
	return client, nil
}
