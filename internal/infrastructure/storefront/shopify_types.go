package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// shopifyProductsResponse is the body of GET /products.json
type shopifyProductsResponse struct {
	Products []shopifyProduct `json:"products"`
}

type shopifyProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Variants []shopifyVariant `json:"variants"`
}

type shopifyVariant struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	Barcode           string          `json:"barcode"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	InventoryQuantity int64           `json:"inventory_quantity"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// shopifyOrderUpdateRequest is the body of PUT /orders/{id}.json
type shopifyOrderUpdateRequest struct {
	Order shopifyOrderNote `json:"order"`
}

type shopifyOrderNote struct {
	ID   any    `json:"id"`
	Note string `json:"note"`
}
