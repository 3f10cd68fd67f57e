package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/KeeperOfTheLights/best-project-backend/internal/cart"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/KeeperOfTheLights/best-project-backend/internal/link"
	"github.com/KeeperOfTheLights/best-project-backend/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
)

type registrar interface {
	RegisterRoutes(router chi.Router)
}

// serve routes req through h with actor as the authenticated principal, or
// anonymously when actor is nil.
func serve(h registrar, actor *identity.User, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	if actor != nil {
		principal := *actor
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), principal)))
			})
		})
	}
	h.RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func newUser(role identity.Role) identity.User {
	return identity.User{ID: uuid.Must(uuid.NewV4()), Role: role, Email: role.String() + "@example.com", FullName: "Test " + role.String()}
}

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Register(ctx context.Context, input identity.RegisterInput) (*identity.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityService) GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityService) ListSuppliers(ctx context.Context, actor identity.User) ([]identity.Company, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Company), args.Error(1)
}

func (m *MockIdentityService) ListEmployees(ctx context.Context, actor identity.User) ([]identity.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockIdentityService) ListUnassigned(ctx context.Context, actor identity.User) ([]identity.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockIdentityService) AssignEmployee(ctx context.Context, actor identity.User, userID uuid.UUID) error {
	args := m.Called(ctx, actor, userID)
	return args.Error(0)
}

func (m *MockIdentityService) RemoveEmployee(ctx context.Context, actor identity.User, userID uuid.UUID) error {
	args := m.Called(ctx, actor, userID)
	return args.Error(0)
}

func (m *MockIdentityService) DeleteAccount(ctx context.Context, actor identity.User) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) orderResult(args mock.Arguments) (*order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, actor identity.User) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, actor))
}

func (m *MockOrderService) Accept(ctx context.Context, actor identity.User, orderID uuid.UUID) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) Reject(ctx context.Context, actor identity.User, orderID uuid.UUID) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) Deliver(ctx context.Context, actor identity.User, orderID uuid.UUID) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) Get(ctx context.Context, actor identity.User, orderID uuid.UUID) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) List(ctx context.Context, actor identity.User, status *order.Status) ([]order.Order, error) {
	args := m.Called(ctx, actor, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) Stats(ctx context.Context, actor identity.User) (*order.Stats, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Stats), args.Error(1)
}

type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) linkResult(args mock.Arguments) (*link.Link, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*link.Link), args.Error(1)
}

func (m *MockLinkService) IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error) {
	args := m.Called(ctx, consumerID, supplierID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkService) Request(ctx context.Context, actor identity.User, supplierID uuid.UUID) (*link.Link, error) {
	return m.linkResult(m.Called(ctx, actor, supplierID))
}

func (m *MockLinkService) Accept(ctx context.Context, actor identity.User, linkID uuid.UUID) (*link.Link, error) {
	return m.linkResult(m.Called(ctx, actor, linkID))
}

func (m *MockLinkService) Reject(ctx context.Context, actor identity.User, linkID uuid.UUID) (*link.Link, error) {
	return m.linkResult(m.Called(ctx, actor, linkID))
}

func (m *MockLinkService) Block(ctx context.Context, actor identity.User, linkID uuid.UUID) (*link.Link, error) {
	return m.linkResult(m.Called(ctx, actor, linkID))
}

func (m *MockLinkService) Unblock(ctx context.Context, actor identity.User, linkID uuid.UUID) (*link.Link, error) {
	return m.linkResult(m.Called(ctx, actor, linkID))
}

func (m *MockLinkService) Unlink(ctx context.Context, actor identity.User, linkID uuid.UUID) error {
	args := m.Called(ctx, actor, linkID)
	return args.Error(0)
}

func (m *MockLinkService) ListForConsumer(ctx context.Context, actor identity.User) ([]link.Link, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]link.Link), args.Error(1)
}

func (m *MockLinkService) ListForSupplier(ctx context.Context, actor identity.User, status *link.Status) ([]link.Link, error) {
	args := m.Called(ctx, actor, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]link.Link), args.Error(1)
}

func (m *MockLinkService) CountLinked(ctx context.Context, supplierID uuid.UUID) (int, error) {
	args := m.Called(ctx, supplierID)
	return args.Int(0), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Add(ctx context.Context, actor identity.User, productID uuid.UUID, quantity int) (*cart.Item, error) {
	args := m.Called(ctx, actor, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Item), args.Error(1)
}

func (m *MockCartService) Update(ctx context.Context, actor identity.User, itemID uuid.UUID, quantity int) (*cart.Item, bool, error) {
	args := m.Called(ctx, actor, itemID, quantity)
	var item *cart.Item
	if args.Get(0) != nil {
		item = args.Get(0).(*cart.Item)
	}
	return item, args.Bool(1), args.Error(2)
}

func (m *MockCartService) Remove(ctx context.Context, actor identity.User, itemID uuid.UUID) error {
	args := m.Called(ctx, actor, itemID)
	return args.Error(0)
}

func (m *MockCartService) List(ctx context.Context, actor identity.User) ([]cart.Item, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Item), args.Error(1)
}
