package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Rule is one fixed-window budget.
type Rule struct {
	Limit  int
	Window time.Duration
}

// PerMinute builds the common one-minute rule.
func PerMinute(n int) Rule {
	return Rule{Limit: n, Window: time.Minute}
}

// Limiter guards named routes with fixed-window counters in Redis. All
// routes share one connection; each keeps its own budget.
type Limiter struct {
	client *redis.Client
	prefix string
	routes map[string]Rule
}

// New connects to Redis and registers the route budgets. Every rule must
// carry a positive limit and window.
func New(addr, password, prefix string, routes map[string]Rule) (*Limiter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "sorriai:ratelimit"
	}
	for route, rule := range routes {
		if rule.Limit <= 0 || rule.Window <= 0 {
			return nil, fmt.Errorf("rate limiter route %q requires positive limit and window", route)
		}
	}
	return &Limiter{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		routes: routes,
	}, nil
}

// Allow returns true when the key is within the route's budget. Routes
// without a registered rule pass. On Redis failures it fails closed.
func (l *Limiter) Allow(route, key string) bool {
	if l == nil {
		return false
	}
	rule, ok := l.routes[route]
	if !ok {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	windowMs := rule.Window.Milliseconds()
	windowSlot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%s:%d", l.prefix, route, key, windowSlot)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false
	}
	return res <= int64(rule.Limit)
}
