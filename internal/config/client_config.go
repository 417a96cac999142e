package config

import "time"

const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetSessionBackend() string
	GetSessionFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetSessionRedisKey() string
}

type Client struct {
	src source
}

var _ ClientConfig = Client{}

// GetRequestTimeout is the fixed wall-clock limit applied to every API request.
func (c Client) GetRequestTimeout() time.Duration {
	return c.src.getDuration("REQUEST_TIMEOUT", 10*time.Second)
}

func (c Client) GetSessionBackend() string {
	return c.src.get("SESSION_BACKEND", SessionBackendFile)
}

func (c Client) GetSessionFile() string {
	return c.src.get("SESSION_FILE", "./data/session.json")
}

func (c Client) GetRedisAddr() string {
	return c.src.get("REDIS_ADDR", "localhost:6379")
}

func (c Client) GetRedisPassword() string {
	return c.src.get("REDIS_PASSWORD", "")
}

func (c Client) GetRedisDB() int {
	return c.src.getInt("REDIS_DB", 0)
}

func (c Client) GetSessionRedisKey() string {
	return c.src.get("SESSION_REDIS_KEY", "clingclang:session")
}
