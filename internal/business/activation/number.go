package activation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxBusinessSequence = 9999

var (
	ErrSequenceExhausted = errors.New("BUSINESS_NUMBER_SEQUENCE_EXHAUSTED")

	businessNumberPattern = regexp.MustCompile(`^BIZ-\d{4}-\d{4}$`)
)

// NumberGenerator hands out human-readable business numbers (BIZ-YYYY-NNNN).
// Neither implementation guarantees global uniqueness on its own; the
// business_profiles.business_number unique index is the final arbiter and
// callers retry on conflict.
type NumberGenerator interface {
	Next(ctx context.Context, at time.Time) (string, error)
}

// FormatBusinessNumber renders the canonical business number for year and seq.
func FormatBusinessNumber(year, seq int) string {
	return fmt.Sprintf("BIZ-%04d-%04d", year, seq)
}

// IsBusinessNumber reports whether s has the canonical business number shape.
func IsBusinessNumber(s string) bool {
	return businessNumberPattern.MatchString(s)
}

// RandomNumberGenerator draws the suffix uniformly from 0000-9999. Collisions
// are frequent at scale.
type RandomNumberGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomNumberGenerator(seed int64) *RandomNumberGenerator {
	return &RandomNumberGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *RandomNumberGenerator) Next(_ context.Context, at time.Time) (string, error) {
	g.mu.Lock()
	n := g.rng.Intn(maxBusinessSequence + 1)
	g.mu.Unlock()
	return FormatBusinessNumber(at.Year(), n), nil
}

// RedisSequenceGenerator keeps a monotonic per-year counter in Redis.
type RedisSequenceGenerator struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisSequenceGenerator(client *redis.Client, keyPrefix string) *RedisSequenceGenerator {
	if keyPrefix == "" {
		keyPrefix = "business:number"
	}
	return &RedisSequenceGenerator{client: client, keyPrefix: keyPrefix}
}

func (g *RedisSequenceGenerator) key(year int) string {
	return fmt.Sprintf("%s:%d", g.keyPrefix, year)
}

func (g *RedisSequenceGenerator) Next(ctx context.Context, at time.Time) (string, error) {
	seq, err := g.client.Incr(ctx, g.key(at.Year())).Result()
	if err != nil {
		return "", fmt.Errorf("increment business number sequence: %w", err)
	}
	if seq > maxBusinessSequence {
		return "", fmt.Errorf("%w: year %d reached %d", ErrSequenceExhausted, at.Year(), seq)
	}
	return FormatBusinessNumber(at.Year(), int(seq)), nil
}
