package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespace prefixes every key this application writes.
const Namespace = "visadesk"

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client is shared by the session store, the price cache and the event
// streams.
type Client struct {
	*redis.Client
}

// NewClient connects and pings. An unreachable server is an error.
func NewClient(opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		ClientName:   Namespace,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb}, nil
}

// Key joins parts under the application namespace.
func Key(parts ...string) string {
	return strings.Join(append([]string{Namespace}, parts...), ":")
}
