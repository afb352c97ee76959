package integration

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/storesync/backend/internal/domain/integration"
)

// MockInvoicingClient is a mock implementation of integration.InvoicingClient
type MockInvoicingClient struct {
	mock.Mock
}

func (m *MockInvoicingClient) ListProducts(ctx context.Context) ([]integration.RemoteProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteProduct), args.Error(1)
}

func (m *MockInvoicingClient) CreateProduct(ctx context.Context, product integration.RemoteProduct) (string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.Error(1)
}

func (m *MockInvoicingClient) UpdateProduct(ctx context.Context, product integration.RemoteProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockInvoicingClient) CreateSalesInvoice(ctx context.Context, invoice integration.SalesInvoice) (string, error) {
	args := m.Called(ctx, invoice)
	return args.String(0), args.Error(1)
}

func (m *MockInvoicingClient) GetInvoicePublicURL(ctx context.Context, documentID string) (string, error) {
	args := m.Called(ctx, documentID)
	return args.String(0), args.Error(1)
}

// MockStorefrontClient is a mock implementation of integration.StorefrontClient
type MockStorefrontClient struct {
	mock.Mock
}

func (m *MockStorefrontClient) ListProducts(ctx context.Context) ([]integration.LocalProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.LocalProduct), args.Error(1)
}

func (m *MockStorefrontClient) AnnotateOrder(ctx context.Context, orderID, note string) error {
	args := m.Called(ctx, orderID, note)
	return args.Error(0)
}
