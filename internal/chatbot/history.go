package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message roles used on the wire and in stored history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryStore keeps conversations keyed by user id.
type HistoryStore interface {
	Load(ctx context.Context, userID string) ([]Message, error)
	Append(ctx context.Context, userID string, turns ...Message) error
	Clear(ctx context.Context, userID string) error
}

// RedisHistoryStore keeps each conversation as a Redis list.
// A zero ttl keeps history until cleared; a zero maxMessages keeps every turn.
type RedisHistoryStore struct {
	client      redis.Cmdable
	ttl         time.Duration
	maxMessages int
}

// NewRedisHistoryStore builds a store on client.
func NewRedisHistoryStore(client redis.Cmdable, ttl time.Duration, maxMessages int) *RedisHistoryStore {
	return &RedisHistoryStore{client: client, ttl: ttl, maxMessages: maxMessages}
}

func historyKey(userID string) string {
	return "chatbot:history:" + userID
}

// Load returns the stored turns oldest first.
func (s *RedisHistoryStore) Load(ctx context.Context, userID string) ([]Message, error) {
	raw, err := s.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode chat history: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// Append pushes turns atomically and applies the retention policy.
func (s *RedisHistoryStore) Append(ctx context.Context, userID string, turns ...Message) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		encoded, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode chat turn: %w", err)
		}
		values = append(values, string(encoded))
	}

	key := historyKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if s.maxMessages > 0 {
			pipe.LTrim(ctx, key, int64(-s.maxMessages), -1)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append chat history: %w", err)
	}
	return nil
}

// Clear drops the conversation.
func (s *RedisHistoryStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
