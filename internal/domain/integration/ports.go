package integration

import "context"

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// InvoicingClient is the port to the invoicing system. Implementations are
// stateless request/response wrappers that pass every call through the
// process-wide Gate.
type InvoicingClient interface {
	// ListProducts returns the complete remote catalog
	ListProducts(ctx context.Context) ([]RemoteProduct, error)
	// CreateProduct creates a product record and returns its document ID (may be empty)
	CreateProduct(ctx context.Context, product RemoteProduct) (string, error)
	// UpdateProduct overwrites the record identified by product.DocumentID
	UpdateProduct(ctx context.Context, product RemoteProduct) error
	// CreateSalesInvoice creates an invoice and returns its document ID.
	// A success response without a document ID yields ErrMalformedResponse.
	CreateSalesInvoice(ctx context.Context, invoice SalesInvoice) (string, error)
	// GetInvoicePublicURL resolves the public URL of an invoice
	GetInvoicePublicURL(ctx context.Context, documentID string) (string, error)
}

// StorefrontClient is the port to the storefront platform.
type StorefrontClient interface {
	// ListProducts returns the full storefront catalog with nested variants
	ListProducts(ctx context.Context) ([]LocalProduct, error)
	// AnnotateOrder writes note into the order's note field
	AnnotateOrder(ctx context.Context, orderID, note string) error
}

// Gate enforces a minimum interval between calls to the invoicing system.
// One instance is shared by every caller in the process.
type Gate interface {
	Acquire(ctx context.Context) error
}
