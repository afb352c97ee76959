// Package integration contains the Integration bounded context.
// This context keeps a storefront catalog and its orders consistent with an
// external invoicing system.
//
// Key concepts:
//   - LocalVariant: a sellable unit read from the storefront (barcode is the join key)
//   - RemoteProduct: a product record owned by the invoicing system
//   - ReconcileReport: per-variant outcome of one reconciliation pass
//   - WorkflowState: the order-to-invoice state machine
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
