package http_test

import (
	"context"

	"github.com/KeeperOfTheLights/best-project-backend/internal/catalog"
	"github.com/KeeperOfTheLights/best-project-backend/internal/chat"
	"github.com/KeeperOfTheLights/best-project-backend/internal/complaint"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) productResult(args mock.Arguments) (*catalog.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalogService) productsResult(args mock.Arguments) ([]catalog.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogService) Create(ctx context.Context, actor identity.User, input catalog.ProductInput) (*catalog.Product, error) {
	return m.productResult(m.Called(ctx, actor, input))
}

func (m *MockCatalogService) Update(ctx context.Context, actor identity.User, id uuid.UUID, input catalog.ProductInput) (*catalog.Product, error) {
	return m.productResult(m.Called(ctx, actor, id, input))
}

func (m *MockCatalogService) ToggleStatus(ctx context.Context, actor identity.User, id uuid.UUID) (*catalog.Product, error) {
	return m.productResult(m.Called(ctx, actor, id))
}

func (m *MockCatalogService) ListOwn(ctx context.Context, actor identity.User) ([]catalog.Product, error) {
	return m.productsResult(m.Called(ctx, actor))
}

func (m *MockCatalogService) Get(ctx context.Context, actor identity.User, id uuid.UUID) (*catalog.Product, error) {
	return m.productResult(m.Called(ctx, actor, id))
}

func (m *MockCatalogService) SupplierCatalog(ctx context.Context, actor identity.User, supplierID uuid.UUID) ([]catalog.Product, error) {
	return m.productsResult(m.Called(ctx, actor, supplierID))
}

func (m *MockCatalogService) Search(ctx context.Context, actor identity.User, query string) ([]catalog.Product, error) {
	return m.productsResult(m.Called(ctx, actor, query))
}

type MockComplaintService struct {
	mock.Mock
}

func (m *MockComplaintService) complaintResult(args mock.Arguments) (*complaint.Complaint, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*complaint.Complaint), args.Error(1)
}

func (m *MockComplaintService) File(ctx context.Context, actor identity.User, orderID uuid.UUID, input complaint.FileInput) (*complaint.Complaint, error) {
	return m.complaintResult(m.Called(ctx, actor, orderID, input))
}

func (m *MockComplaintService) Escalate(ctx context.Context, actor identity.User, id uuid.UUID) (*complaint.Complaint, error) {
	return m.complaintResult(m.Called(ctx, actor, id))
}

func (m *MockComplaintService) Resolve(ctx context.Context, actor identity.User, id uuid.UUID) (*complaint.Complaint, error) {
	return m.complaintResult(m.Called(ctx, actor, id))
}

func (m *MockComplaintService) Reject(ctx context.Context, actor identity.User, id uuid.UUID) (*complaint.Complaint, error) {
	return m.complaintResult(m.Called(ctx, actor, id))
}

func (m *MockComplaintService) Get(ctx context.Context, actor identity.User, id uuid.UUID) (*complaint.Complaint, error) {
	return m.complaintResult(m.Called(ctx, actor, id))
}

func (m *MockComplaintService) List(ctx context.Context, actor identity.User, status *complaint.Status) ([]complaint.Complaint, error) {
	args := m.Called(ctx, actor, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]complaint.Complaint), args.Error(1)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Send(ctx context.Context, actor identity.User, partnerID uuid.UUID, text string) (*chat.Message, error) {
	args := m.Called(ctx, actor, partnerID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Message), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, actor identity.User, partnerID uuid.UUID, limit int) ([]chat.Message, error) {
	args := m.Called(ctx, actor, partnerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chat.Message), args.Error(1)
}
