package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client to allow future extensions.
type Client struct {
	*redis.Client
}

// Open creates a Redis client for host:port and pings it to validate the
// connection before anything depends on it.
func Open(ctx context.Context, host string, port int, password string, db int) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("empty redis host")
	}
	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{Client: c}, nil
}
