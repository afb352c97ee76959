// Package storefront contains the adapter for the Shopify Admin REST API.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
)

const (
	// maxResponseSize is the maximum allowed response size from Shopify (10MB)
	maxResponseSize = 10 * 1024 * 1024
	// productsPageSize is the largest page Shopify serves for products.json
	productsPageSize = 250
	// maxProductPages guards against a pagination loop
	maxProductPages = 400
)

// ShopifyAdapter implements integration.StorefrontClient for Shopify
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure ShopifyAdapter implements StorefrontClient
var _ integration.StorefrontClient = (*ShopifyAdapter)(nil)

// NewShopifyAdapter creates a new adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig, logger *zap.Logger) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrNotConfigured, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.With(zap.String("component", "shopify")),
	}, nil
}

// ListProducts fetches every product page, following the Link rel="next" header
func (a *ShopifyAdapter) ListProducts(ctx context.Context) ([]integration.LocalProduct, error) {
	next := fmt.Sprintf("%s/products.json?limit=%d", a.config.AdminURL(), productsPageSize)
	products := make([]integration.LocalProduct, 0)

	for page := 0; next != ""; page++ {
		if page >= maxProductPages {
			return nil, fmt.Errorf("%w: products.json pagination exceeded %d pages", integration.ErrMalformedResponse, maxProductPages)
		}

		body, header, err := a.doRequest(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}

		var resp shopifyProductsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: failed to parse products.json: %v", integration.ErrMalformedResponse, err)
		}
		for _, p := range resp.Products {
			products = append(products, toLocalProduct(p))
		}

		next = nextPageURL(header.Get("Link"))
	}

	a.logger.Debug("Fetched storefront catalog", zap.Int("products", len(products)))
	return products, nil
}

// AnnotateOrder writes note into the order's note field
func (a *ShopifyAdapter) AnnotateOrder(ctx context.Context, orderID, note string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order ID is required", integration.ErrValidationFailure)
	}

	var id any = orderID
	if n, err := strconv.ParseInt(orderID, 10, 64); err == nil {
		id = n
	}

	payload, err := json.Marshal(shopifyOrderUpdateRequest{Order: shopifyOrderNote{ID: id, Note: note}})
	if err != nil {
		return fmt.Errorf("shopify: failed to encode order update: %w", err)
	}

	url := fmt.Sprintf("%s/orders/%s.json", a.config.AdminURL(), orderID)
	if _, _, err := a.doRequest(ctx, http.MethodPut, url, payload); err != nil {
		return err
	}

	a.logger.Info("Annotated storefront order", zap.String("order_id", orderID))
	return nil
}

func toLocalProduct(p shopifyProduct) integration.LocalProduct {
	lp := integration.LocalProduct{
		ID:       strconv.FormatInt(p.ID, 10),
		Title:    p.Title,
		Variants: make([]integration.LocalVariant, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		lp.Variants = append(lp.Variants, integration.LocalVariant{
			ID:                strconv.FormatInt(v.ID, 10),
			ProductTitle:      p.Title,
			Title:             v.Title,
			Barcode:           v.Barcode,
			SKU:               v.SKU,
			Price:             v.Price,
			InventoryQuantity: v.InventoryQuantity,
			UpdatedAt:         v.UpdatedAt,
		})
	}
	return lp
}

// nextPageURL extracts the rel="next" target from a Link header
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, attr := range segments[1:] {
			attr = strings.ReplaceAll(strings.TrimSpace(attr), " ", "")
			if attr == `rel="next"` || attr == "rel=next" {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}

// doRequest performs one Admin API call and returns the body of a 2xx response
func (a *ShopifyAdapter) doRequest(ctx context.Context, method, url string, payload []byte) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: shopify %s: %v", integration.ErrRemoteUnavailable, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read shopify response: %v", integration.ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remoteErr := &integration.RemoteError{Method: method + " " + req.URL.Path, Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, nil, fmt.Errorf("%w: %w", integration.ErrRateLimited, remoteErr)
		}
		return nil, nil, fmt.Errorf("%w: %w", integration.ErrRemoteUnavailable, remoteErr)
	}

	return body, resp.Header, nil
}
