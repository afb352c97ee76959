// Package invoicing contains the adapter for the e-Računi invoicing API.
package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the e-Računi API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// EracuniAdapter implements integration.InvoicingClient for e-Računi.
// Every call passes through the shared pacing gate before it hits the network.
type EracuniAdapter struct {
	config     *EracuniConfig
	httpClient *http.Client
	gate       integration.Gate
	logger     *zap.Logger
}

// Ensure EracuniAdapter implements InvoicingClient
var _ integration.InvoicingClient = (*EracuniAdapter)(nil)

// NewEracuniAdapter creates a new adapter. gate may be nil to disable pacing.
func NewEracuniAdapter(config *EracuniConfig, gate integration.Gate, logger *zap.Logger) (*EracuniAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrNotConfigured, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EracuniAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		gate:   gate,
		logger: logger.With(zap.String("component", "eracuni")),
	}, nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ListProducts returns the complete remote catalog
func (a *EracuniAdapter) ListProducts(ctx context.Context) ([]integration.RemoteProduct, error) {
	body, err := a.doRequest(ctx, MethodProductList, struct{}{})
	if err != nil {
		return nil, err
	}

	var env eracuniEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s response: %v", integration.ErrMalformedResponse, MethodProductList, err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("%w: %s response has no response envelope", integration.ErrMalformedResponse, MethodProductList)
	}

	raw := env.result()
	if raw == nil {
		return []integration.RemoteProduct{}, nil
	}

	var items []eracuniProductListItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s result is not a product list: %v", integration.ErrMalformedResponse, MethodProductList, err)
	}

	products := make([]integration.RemoteProduct, 0, len(items))
	for _, item := range items {
		products = append(products, integration.RemoteProduct{
			DocumentID:         string(item.DocumentID),
			ProductCode:        strings.TrimSpace(string(item.ProductCode)),
			Name:               item.Name,
			GrossPrice:         decimalOrZero(item.GrossPrice),
			PackingQuantity:    decimalOrZero(item.PackingQuantity),
			Unit:               item.Unit,
			VATTransactionType: string(item.VATTransactionType),
			VATPercentage:      decimalOrZero(item.VATPercentage),
		})
	}

	a.logger.Debug("Fetched remote catalog", zap.Int("products", len(products)))
	return products, nil
}

// CreateProduct creates a product record. The returned document ID is empty
// when the remote system does not echo one.
func (a *EracuniAdapter) CreateProduct(ctx context.Context, product integration.RemoteProduct) (string, error) {
	product.DocumentID = ""
	body, err := a.doRequest(ctx, MethodProductCreate, eracuniProductParams{Product: toEracuniProduct(product)})
	if err != nil {
		return "", err
	}
	documentID, ok := decodeDocumentID(body)
	if !ok {
		a.logger.Debug("Product created without document ID in response",
			zap.String("product_code", product.ProductCode),
			zap.String("body", truncate(body)))
	}
	return documentID, nil
}

// UpdateProduct overwrites every mutable field of the record identified by product.DocumentID
func (a *EracuniAdapter) UpdateProduct(ctx context.Context, product integration.RemoteProduct) error {
	if product.DocumentID == "" {
		return fmt.Errorf("%w: update requires a document ID", integration.ErrValidationFailure)
	}
	_, err := a.doRequest(ctx, MethodProductUpdate, eracuniProductParams{Product: toEracuniProduct(product)})
	return err
}

func toEracuniProduct(p integration.RemoteProduct) eracuniProduct {
	return eracuniProduct{
		DocumentID:         p.DocumentID,
		ProductCode:        p.ProductCode,
		Name:               p.Name,
		GrossPrice:         number(p.GrossPrice),
		PackingQuantity:    number(p.PackingQuantity),
		Unit:               p.Unit,
		VATTransactionType: p.VATTransactionType,
		VATPercentage:      number(p.VATPercentage),
	}
}

// ---------------------------------------------------------------------------
// Sales invoices
// ---------------------------------------------------------------------------

// CreateSalesInvoice creates an invoice and returns its document ID
func (a *EracuniAdapter) CreateSalesInvoice(ctx context.Context, invoice integration.SalesInvoice) (string, error) {
	body, err := a.doRequest(ctx, MethodSalesInvoiceCreate, eracuniSalesInvoiceParams{SalesInvoice: toEracuniSalesInvoice(invoice)})
	if err != nil {
		return "", err
	}

	documentID, ok := decodeDocumentID(body)
	if !ok {
		a.logger.Warn("Invoice created without document ID", zap.String("body", truncate(body)))
		return "", fmt.Errorf("%w: %s response has no documentID", integration.ErrMalformedResponse, MethodSalesInvoiceCreate)
	}
	return documentID, nil
}

// GetInvoicePublicURL resolves the public URL of an invoice
func (a *EracuniAdapter) GetInvoicePublicURL(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("%w: document ID is required", integration.ErrValidationFailure)
	}

	body, err := a.doRequest(ctx, MethodSalesInvoiceGetPublicURL, eracuniPublicURLParams{DocumentID: documentID})
	if err != nil {
		return "", err
	}

	var env eracuniEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%w: failed to parse %s response: %v", integration.ErrMalformedResponse, MethodSalesInvoiceGetPublicURL, err)
	}
	raw := env.result()
	if raw == nil {
		return "", fmt.Errorf("%w: %s response has no result", integration.ErrMalformedResponse, MethodSalesInvoiceGetPublicURL)
	}

	var res eracuniPublicURLResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("%w: failed to parse %s result: %v", integration.ErrMalformedResponse, MethodSalesInvoiceGetPublicURL, err)
	}
	if strings.TrimSpace(res.PublicURL) == "" {
		return "", fmt.Errorf("%w: %s result has no publicURL", integration.ErrMalformedResponse, MethodSalesInvoiceGetPublicURL)
	}
	return strings.TrimSpace(res.PublicURL), nil
}

func toEracuniSalesInvoice(inv integration.SalesInvoice) eracuniSalesInvoice {
	items := make([]eracuniSalesInvoiceItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		item := eracuniSalesInvoiceItem{
			ProductCode: it.ProductCode,
			Description: it.Description,
			Quantity:    it.Quantity,
		}
		if !it.Price.IsZero() {
			item.Price = number(it.Price)
		}
		items = append(items, item)
	}

	out := eracuniSalesInvoice{
		BuyerName:       inv.BuyerName,
		BuyerEmail:      inv.BuyerEmail,
		BuyerStreet:     inv.BuyerAddress.Street,
		BuyerPostalCode: inv.BuyerAddress.PostalCode,
		BuyerCity:       inv.BuyerAddress.City,
		BuyerCountry:    inv.BuyerAddress.Country,
		Currency:        inv.Currency,
		MethodOfPayment: inv.PaymentMethod,
		CashRegister:    inv.CashRegisterCode,
		Items:           items,
	}
	if !inv.Total.IsZero() {
		out.TotalAmount = number(inv.Total)
	}
	return out
}

// decodeDocumentID reads a document ID from either the nested
// {response:{result:{documentID}}} shape or the flat {documentID} shape.
func decodeDocumentID(body []byte) (string, bool) {
	var env eracuniEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if raw := env.result(); raw != nil {
			var res eracuniDocumentResult
			if err := json.Unmarshal(raw, &res); err == nil && strings.TrimSpace(string(res.DocumentID)) != "" {
				return strings.TrimSpace(string(res.DocumentID)), true
			}
		}
	}

	var flat eracuniDocumentResult
	if err := json.Unmarshal(body, &flat); err == nil && strings.TrimSpace(string(flat.DocumentID)) != "" {
		return strings.TrimSpace(string(flat.DocumentID)), true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// doRequest paces, posts one API method and returns the raw body of a 2xx response
func (a *EracuniAdapter) doRequest(ctx context.Context, method string, params any) ([]byte, error) {
	if a.gate != nil {
		if err := a.gate.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(eracuniRequest{
		Username:   a.config.Username,
		MD5Pass:    a.config.PasswordHash,
		Token:      a.config.Token,
		Method:     method,
		Parameters: params,
	})
	if err != nil {
		return nil, fmt.Errorf("eracuni: failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("eracuni: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", integration.ErrRemoteUnavailable, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s response: %v", integration.ErrRemoteUnavailable, method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remoteErr := &integration.RemoteError{Method: method, Status: resp.StatusCode, Body: truncate(body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", integration.ErrRateLimited, remoteErr)
		}
		return nil, fmt.Errorf("%w: %w", integration.ErrRemoteUnavailable, remoteErr)
	}

	return body, nil
}

// truncate keeps logged bodies bounded
func truncate(body []byte) string {
	const limit = 2048
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "...(truncated)"
}
