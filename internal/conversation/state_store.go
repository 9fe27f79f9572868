package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// StateStore keeps the current step of each chat session. Load on an absent
// or expired session returns Idle, never an error: expiry is a normal
// outcome, not a fault.
type StateStore interface {
	Load(ctx context.Context, chatID int64) (Step, error)
	Save(ctx context.Context, chatID int64, step Step) error
	Clear(ctx context.Context, chatID int64) error
}

type RedisStateStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStateStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if tracer == nil {
		tracer = otel.Tracer("bookline.internal.conversation.state")
	}
	return &RedisStateStore{
		redis:  client,
		ttl:    ttl,
		tracer: tracer,
	}
}

func (s *RedisStateStore) Load(ctx context.Context, chatID int64) (Step, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_state")
	defer span.End()

	raw, err := s.redis.Get(ctx, stateKey(chatID)).Result()
	if err != nil {
		if err == redis.Nil {
			return Idle{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load state: %w", err)
	}

	step, err := DecodeStep(raw)
	if err != nil {
		// A stale encoding from an older deploy behaves like an expired
		// session rather than poisoning the chat.
		span.RecordError(err)
		return Idle{}, nil
	}
	return step, nil
}

func (s *RedisStateStore) Save(ctx context.Context, chatID int64, step Step) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_state")
	defer span.End()

	encoded := EncodeStep(step)
	if encoded == "" {
		return s.Clear(ctx, chatID)
	}
	if err := s.redis.Set(ctx, stateKey(chatID), encoded, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.redis.Del(ctx, stateKey(chatID)).Err(); err != nil {
		return fmt.Errorf("conversation: failed to clear state: %w", err)
	}
	return nil
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("chat_state:%d", chatID)
}

// MemoryStateStore is an in-process StateStore for tests and single-node
// deployments without Redis. TTLs are not enforced.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[int64]string
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[int64]string)}
}

func (s *MemoryStateStore) Load(_ context.Context, chatID int64) (Step, error) {
	s.mu.RLock()
	raw, ok := s.states[chatID]
	s.mu.RUnlock()
	if !ok {
		return Idle{}, nil
	}
	step, err := DecodeStep(raw)
	if err != nil {
		return Idle{}, nil
	}
	return step, nil
}

func (s *MemoryStateStore) Save(_ context.Context, chatID int64, step Step) error {
	encoded := EncodeStep(step)
	s.mu.Lock()
	defer s.mu.Unlock()
	if encoded == "" {
		delete(s.states, chatID)
		return nil
	}
	s.states[chatID] = encoded
	return nil
}

func (s *MemoryStateStore) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.states, chatID)
	s.mu.Unlock()
	return nil
}
