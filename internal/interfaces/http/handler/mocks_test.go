package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	integrationapp "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
)

type mockSyncService struct {
	mock.Mock
}

func (m *mockSyncService) SyncCatalog(ctx context.Context, trigger string) (*integration.ReconcileReport, error) {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ReconcileReport), args.Error(1)
}

func (m *mockSyncService) Plan(ctx context.Context) (*integrationapp.PlanResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integrationapp.PlanResult), args.Error(1)
}

func (m *mockSyncService) SyncVariants(
	ctx context.Context,
	productTitle string,
	variants []integration.LocalVariant,
	mode integrationapp.ActionMode,
) (*integration.ReconcileReport, error) {
	args := m.Called(ctx, productTitle, variants, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ReconcileReport), args.Error(1)
}

type mockInvoiceRunner struct {
	mock.Mock
}

func (m *mockInvoiceRunner) Run(ctx context.Context, order integration.Order) (*integration.WorkflowResult, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WorkflowResult), args.Error(1)
}
