package db

import (
	"os"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the redis instance backing the transient
// practitioner-selection handoff.
func NewRedisClient() (*redis.Client, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return redis.NewClient(opts), nil
}
