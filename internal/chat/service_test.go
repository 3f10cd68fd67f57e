package chat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/chat"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	rooms    map[string]chat.Room
	messages map[string][]chat.Message
	err      error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rooms:    make(map[string]chat.Room),
		messages: make(map[string][]chat.Message),
	}
}

func (s *memoryStore) GetOrCreateRoom(ctx context.Context, consumerID, supplierID uuid.UUID) (*chat.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	id := fmt.Sprintf("%s:%s", consumerID, supplierID)
	room, ok := s.rooms[id]
	if !ok {
		room = chat.Room{ID: id, ConsumerID: consumerID, SupplierID: supplierID, CreatedAt: time.Now()}
		s.rooms[id] = room
	}
	return &room, nil
}

func (s *memoryStore) AppendMessage(ctx context.Context, m *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.RoomID] = append(s.messages[m.RoomID], *m)
	return nil
}

func (s *memoryStore) Messages(ctx context.Context, roomID string, limit int) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.messages[roomID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]chat.Message{}, all...), nil
}

type linkSet map[[2]uuid.UUID]bool

func (l linkSet) IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error) {
	return l[[2]uuid.UUID{consumerID, supplierID}], nil
}

type companyResolver struct {
	companyID uuid.UUID
	owner     identity.User
}

func (r companyResolver) EffectiveSupplier(ctx context.Context, principal identity.User) identity.User {
	if principal.CompanyID != nil && *principal.CompanyID == r.companyID {
		return r.owner
	}
	return principal
}

type fixture struct {
	store    *memoryStore
	links    linkSet
	svc      chat.Service
	owner    identity.User
	sales    identity.User
	consumer identity.User
}

func newFixture() *fixture {
	companyID := uuid.Must(uuid.NewV4())
	f := &fixture{
		store:    newMemoryStore(),
		links:    linkSet{},
		owner:    identity.User{ID: uuid.Must(uuid.NewV4()), Role: identity.RoleOwner, CompanyID: &companyID},
		sales:    identity.User{ID: uuid.Must(uuid.NewV4()), Role: identity.RoleSales, CompanyID: &companyID},
		consumer: identity.User{ID: uuid.Must(uuid.NewV4()), Role: identity.RoleConsumer},
	}
	f.svc = chat.NewService(f.store, f.links, companyResolver{companyID: companyID, owner: f.owner})
	return f
}

func (f *fixture) link() {
	f.links[[2]uuid.UUID{f.consumer.ID, f.owner.ID}] = true
}

func TestSend_ConversationSharedByCompany(t *testing.T) {
	f := newFixture()
	f.link()
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.consumer, f.owner.ID, "Do you deliver on Sundays?")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.sales, f.consumer.ID, "  Yes, until noon.  ")
	require.NoError(t, err)

	history, err := f.svc.History(ctx, f.owner, f.consumer.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, f.consumer.ID, history[0].SenderID)
	assert.Equal(t, f.sales.ID, history[1].SenderID)
	assert.Equal(t, "Yes, until noon.", history[1].Text)
	assert.Len(t, f.store.rooms, 1)
}

func TestSend_Refusals(t *testing.T) {
	tests := []struct {
		name    string
		linked  bool
		actor   func(f *fixture) identity.User
		partner func(f *fixture) uuid.UUID
		text    string
		wantErr error
	}{
		{
			name:    "unlinked_consumer",
			actor:   func(f *fixture) identity.User { return f.consumer },
			partner: func(f *fixture) uuid.UUID { return f.owner.ID },
			text:    "hello",
			wantErr: apperr.ErrForbidden,
		},
		{
			name:    "unlinked_supplier_staff",
			actor:   func(f *fixture) identity.User { return f.sales },
			partner: func(f *fixture) uuid.UUID { return f.consumer.ID },
			text:    "hello",
			wantErr: apperr.ErrForbidden,
		},
		{
			name:    "consumer_to_staff_member_instead_of_owner",
			linked:  true,
			actor:   func(f *fixture) identity.User { return f.consumer },
			partner: func(f *fixture) uuid.UUID { return f.sales.ID },
			text:    "hello",
			wantErr: apperr.ErrForbidden,
		},
		{
			name:    "empty_text",
			linked:  true,
			actor:   func(f *fixture) identity.User { return f.consumer },
			partner: func(f *fixture) uuid.UUID { return f.owner.ID },
			text:    "   ",
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "text_too_long",
			linked:  true,
			actor:   func(f *fixture) identity.User { return f.consumer },
			partner: func(f *fixture) uuid.UUID { return f.owner.ID },
			text:    strings.Repeat("a", 2001),
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.linked {
				f.link()
			}

			m, err := f.svc.Send(context.Background(), tt.actor(f), tt.partner(f), tt.text)

			assert.Nil(t, m)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.messages)
		})
	}
}

func TestHistory_LimitKeepsNewest(t *testing.T) {
	f := newFixture()
	f.link()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.svc.Send(ctx, f.consumer, f.owner.ID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	history, err := f.svc.History(ctx, f.consumer, f.owner.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "message 3", history[0].Text)
	assert.Equal(t, "message 4", history[1].Text)
}

func TestHistory_RequiresLink(t *testing.T) {
	f := newFixture()

	_, err := f.svc.History(context.Background(), f.consumer, f.owner.ID, 10)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSend_StoreFailure(t *testing.T) {
	f := newFixture()
	f.link()
	f.store.err = errors.New("redis: connection refused")

	_, err := f.svc.Send(context.Background(), f.consumer, f.owner.ID, "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrForbidden)
	assert.Contains(t, err.Error(), "connection refused")
}
