package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxTextLength       = 2000
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type LinkChecker interface {
	IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error)
}

type Service interface {
	Send(ctx context.Context, actor identity.User, partnerID uuid.UUID, text string) (*Message, error)
	History(ctx context.Context, actor identity.User, partnerID uuid.UUID, limit int) ([]Message, error)
}

type service struct {
	store    Store
	links    LinkChecker
	resolver identity.SupplierResolver
	now      func() time.Time
}

func NewService(store Store, links LinkChecker, resolver identity.SupplierResolver) Service {
	return &service{
		store:    store,
		links:    links,
		resolver: resolver,
		now:      time.Now,
	}
}

// parties orders the actor and the partner into (consumer, supplier owner)
// and refuses unless the two are linked.
func (s *service) parties(ctx context.Context, actor identity.User, partnerID uuid.UUID) (consumerID, supplierID uuid.UUID, err error) {
	switch {
	case actor.Role.IsConsumer():
		consumerID, supplierID = actor.ID, partnerID
	case actor.Role.IsSupplierSide():
		consumerID, supplierID = partnerID, s.resolver.EffectiveSupplier(ctx, actor).ID
	default:
		return uuid.Nil, uuid.Nil, apperr.ErrForbidden
	}

	linked, err := s.links.IsLinked(ctx, consumerID, supplierID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("service: failed to check link: %w", err)
	}
	if !linked {
		log.Warn().Stringer("user_id", actor.ID).Stringer("partner_id", partnerID).Msg("service: chat between unlinked parties refused")
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: chat requires an accepted link", apperr.ErrForbidden)
	}
	return consumerID, supplierID, nil
}

func (s *service) Send(ctx context.Context, actor identity.User, partnerID uuid.UUID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("message text is required")
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return nil, apperr.Validation("message text must be at most %d characters", maxTextLength)
	}

	consumerID, supplierID, err := s.parties(ctx, actor, partnerID)
	if err != nil {
		return nil, err
	}

	room, err := s.store.GetOrCreateRoom(ctx, consumerID, supplierID)
	if err != nil {
		log.Error().Err(err).Stringer("consumer_id", consumerID).Stringer("supplier_id", supplierID).Msg("service: failed to open chat room")
		return nil, fmt.Errorf("service: failed to open chat room: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate message id: %w", err)
	}
	m := &Message{
		ID:        id,
		RoomID:    room.ID,
		SenderID:  actor.ID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, m); err != nil {
		log.Error().Err(err).Str("room_id", room.ID).Msg("service: failed to store chat message")
		return nil, fmt.Errorf("service: failed to send message: %w", err)
	}

	log.Debug().Str("room_id", room.ID).Stringer("sender_id", actor.ID).Msg("service: chat message sent")
	return m, nil
}

func (s *service) History(ctx context.Context, actor identity.User, partnerID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	consumerID, supplierID, err := s.parties(ctx, actor, partnerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.Messages(ctx, roomID(consumerID, supplierID), limit)
	if err != nil {
		log.Error().Err(err).Stringer("consumer_id", consumerID).Stringer("supplier_id", supplierID).Msg("service: failed to read chat history")
		return nil, fmt.Errorf("service: failed to read chat history: %w", err)
	}
	return messages, nil
}
