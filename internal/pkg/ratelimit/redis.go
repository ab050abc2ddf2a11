package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "authgate:rl:"

var errUnexpectedReply = errors.New("ratelimit: unexpected redis reply")

// The first INCR in a window sets its expiry, so the key disappears when the
// window ends and the next attempt starts a new one.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[2])
end

if current > tonumber(ARGV[1]) then
  return {0, ttl}
end
return {1, ttl}
`)

// Redis is a fixed-window Limiter shared by every replica.
type Redis struct {
	client redis.Scripter
	rule   Rule
	prefix string
}

// NewRedis returns a Redis limiter. Keys are namespaced with prefix, or
// "authgate:rl:" when empty.
func NewRedis(client redis.Scripter, rule Rule, prefix string) (*Redis, error) {
	if rule.Window < time.Millisecond {
		return nil, ErrInvalidWindow
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &Redis{client: client, rule: rule, prefix: prefix}, nil
}

// Allow counts one attempt. now is ignored; Redis owns the window clock.
func (l *Redis) Allow(ctx context.Context, key string, _ time.Time) (bool, time.Duration, error) {
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.rule.Limit, l.rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, errUnexpectedReply
	}

	return res[0] == 1, time.Duration(max(res[1], 0)) * time.Millisecond, nil
}
