package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type Store interface {
	GetOrCreateRoom(ctx context.Context, consumerID, supplierID uuid.UUID) (*Room, error)
	AppendMessage(ctx context.Context, m *Message) error
	// Messages returns at most limit of the newest messages, oldest first.
	Messages(ctx context.Context, roomID string, limit int) ([]Message, error)
}

// maxRoomMessages caps the history kept per room.
const maxRoomMessages = 1000

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func roomKey(id string) string {
	return "chat:room:" + id
}

func messagesKey(id string) string {
	return "chat:" + id + ":messages"
}

func (s *RedisStore) GetOrCreateRoom(ctx context.Context, consumerID, supplierID uuid.UUID) (*Room, error) {
	id := roomID(consumerID, supplierID)
	key := roomKey(id)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "consumer_id", consumerID.String())
		pipe.HSetNX(ctx, key, "supplier_id", supplierID.String())
		pipe.HSetNX(ctx, key, "created_at", now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chat store: failed to create room %s: %w", id, err)
	}

	createdAt, err := s.client.HGet(ctx, key, "created_at").Result()
	if err != nil {
		return nil, fmt.Errorf("chat store: failed to read room %s: %w", id, err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("chat store: corrupt created_at on room %s: %w", id, err)
	}
	return &Room{ID: id, ConsumerID: consumerID, SupplierID: supplierID, CreatedAt: created}, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, m *Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("chat store: failed to encode message: %w", err)
	}

	key := messagesKey(m.RoomID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.LTrim(ctx, key, -maxRoomMessages, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("chat store: failed to append message to room %s: %w", m.RoomID, err)
	}
	return nil
}

func (s *RedisStore) Messages(ctx context.Context, roomID string, limit int) ([]Message, error) {
	raw, err := s.client.LRange(ctx, messagesKey(roomID), int64(-limit), -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("chat store: failed to read messages of room %s: %w", roomID, err)
	}

	messages := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("chat store: corrupt message in room %s: %w", roomID, err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
