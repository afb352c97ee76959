package dto

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storesync/backend/internal/domain/integration"
)

// VariantGIDRef points at a changed variant by its GraphQL global ID
type VariantGIDRef struct {
	AdminGraphQLAPIID string    `json:"admin_graphql_api_id" binding:"required"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// WebhookVariant is a variant as delivered in a product webhook
type WebhookVariant struct {
	ID                int64           `json:"id" binding:"required"`
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	Barcode           *string         `json:"barcode"`
	SKU               *string         `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	InventoryQuantity int64           `json:"inventory_quantity"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductWebhookRequest is the body of the products/create and products/update topics
type ProductWebhookRequest struct {
	ID          int64            `json:"id" binding:"required"`
	Title       string           `json:"title"`
	Variants    []WebhookVariant `json:"variants" binding:"dive"`
	VariantGIDs []VariantGIDRef  `json:"variant_gids" binding:"dive"`
}

// ToDomain converts the payload variants into local variants
func (r ProductWebhookRequest) ToDomain() []integration.LocalVariant {
	variants := make([]integration.LocalVariant, 0, len(r.Variants))
	for _, v := range r.Variants {
		variants = append(variants, integration.LocalVariant{
			ID:                strconv.FormatInt(v.ID, 10),
			ProductTitle:      r.Title,
			Title:             v.Title,
			Barcode:           strings.TrimSpace(deref(v.Barcode)),
			SKU:               strings.TrimSpace(deref(v.SKU)),
			Price:             v.Price,
			InventoryQuantity: v.InventoryQuantity,
			UpdatedAt:         v.UpdatedAt,
		})
	}
	return variants
}

// ChangedVariantIDs returns the raw GIDs listed as changed, in delivery order
func (r ProductWebhookRequest) ChangedVariantIDs() []string {
	ids := make([]string, 0, len(r.VariantGIDs))
	for _, ref := range r.VariantGIDs {
		ids = append(ids, ref.AdminGraphQLAPIID)
	}
	return ids
}

// HasChanges reports whether the payload carries both the change list and the variants
func (r ProductWebhookRequest) HasChanges() bool {
	return len(r.VariantGIDs) > 0 && len(r.Variants) > 0
}

// OrderCustomer is the customer block of an orders/create payload
type OrderCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// OrderAddress is a postal address block of an orders/create payload
type OrderAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// OrderLineItemRequest is one line of an orders/create payload
type OrderLineItemRequest struct {
	SKU      string          `json:"sku"`
	Barcode  string          `json:"barcode"`
	Title    string          `json:"title"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity" binding:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

// OrderWebhookRequest is the body of the orders/create topic
type OrderWebhookRequest struct {
	ID                  int64                  `json:"id" binding:"required"`
	Name                string                 `json:"name"`
	Email               string                 `json:"email"`
	Currency            string                 `json:"currency"`
	TotalPrice          decimal.Decimal        `json:"total_price"`
	PaymentGatewayNames []string               `json:"payment_gateway_names"`
	Customer            *OrderCustomer         `json:"customer"`
	BillingAddress      *OrderAddress          `json:"billing_address"`
	ShippingAddress     *OrderAddress          `json:"shipping_address"`
	LineItems           []OrderLineItemRequest `json:"line_items" binding:"required,min=1,dive"`
}

// ToDomain converts the payload into a domain order. The line item product
// code is the barcode when present, otherwise the SKU.
func (r OrderWebhookRequest) ToDomain() integration.Order {
	order := integration.Order{
		ID:       strconv.FormatInt(r.ID, 10),
		Name:     r.Name,
		Total:    r.TotalPrice,
		Currency: r.Currency,
	}
	if len(r.PaymentGatewayNames) > 0 {
		order.PaymentMethod = r.PaymentGatewayNames[0]
	}

	if r.Customer != nil {
		order.Customer = integration.Customer{
			FirstName: r.Customer.FirstName,
			LastName:  r.Customer.LastName,
			Email:     r.Customer.Email,
		}
	}
	if order.Customer.Email == "" {
		order.Customer.Email = r.Email
	}
	addr := r.BillingAddress
	if addr == nil {
		addr = r.ShippingAddress
	}
	if addr != nil {
		order.Customer.Address = integration.Address{
			Street:     strings.TrimSpace(addr.Address1 + " " + addr.Address2),
			City:       addr.City,
			PostalCode: addr.Zip,
			Country:    addr.Country,
		}
	}

	order.LineItems = make([]integration.OrderLineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		code := strings.TrimSpace(li.Barcode)
		if code == "" {
			code = strings.TrimSpace(li.SKU)
		}
		title := li.Name
		if title == "" {
			title = li.Title
		}
		order.LineItems = append(order.LineItems, integration.OrderLineItem{
			ProductCode: code,
			Title:       title,
			Quantity:    li.Quantity,
			UnitPrice:   li.Price,
		})
	}
	return order
}

// OrderWebhookResponse is returned when an order has been invoiced and annotated
type OrderWebhookResponse struct {
	Success    bool   `json:"success"`
	OrderID    string `json:"order_id"`
	DocumentID string `json:"document_id"`
	InvoiceURL string `json:"invoice_url"`
}

// OrderWebhookFailure is returned when the invoice workflow fails
type OrderWebhookFailure struct {
	Success         bool   `json:"success"`
	Code            string `json:"code"`
	Error           string `json:"error"`
	FailedStep      string `json:"failed_step"`
	DocumentID      string `json:"document_id,omitempty"`
	InvoiceOrphaned bool   `json:"invoice_orphaned"`
	RequestID       string `json:"request_id,omitempty"`
}

// WebhookAck is returned for accepted product webhooks
type WebhookAck struct {
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	RunID     string `json:"run_id,omitempty"`
}

// NewWebhookAck summarizes a variant sync report
func NewWebhookAck(report *integration.ReconcileReport) WebhookAck {
	ack := WebhookAck{Success: true}
	if report == nil {
		return ack
	}
	ack.Processed = len(report.Outcomes)
	ack.Created = report.Created()
	ack.Updated = report.Updated()
	ack.Failed = report.Failed()
	ack.Skipped = report.Skipped()
	ack.RunID = report.RunID.String()
	return ack
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
