package integration

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Order is a completed storefront transaction. It is immutable input to the invoicing workflow.
type Order struct {
	ID            string
	Name          string
	Customer      Customer
	LineItems     []OrderLineItem
	Total         decimal.Decimal
	Currency      string
	PaymentMethod string
}

// Customer is the buyer of an order.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Address   Address
}

// FullName returns "First Last" with empty parts dropped.
func (c Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Address is a postal address.
type Address struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

// IsEmpty returns true when no address field is set.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.PostalCode == "" && a.Country == ""
}

// OrderLineItem references a variant by product code.
type OrderLineItem struct {
	ProductCode string
	Title       string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// ---------------------------------------------------------------------------
// Invoice
// ---------------------------------------------------------------------------

// SalesInvoice is the invoice-create request built from an Order.
type SalesInvoice struct {
	BuyerName        string
	BuyerEmail       string
	BuyerAddress     Address
	Items            []SalesInvoiceItem
	Total            decimal.Decimal
	Currency         string
	PaymentMethod    string
	CashRegisterCode string
}

// SalesInvoiceItem is one invoiced line.
type SalesInvoiceItem struct {
	ProductCode string
	Description string
	Quantity    int64
	Price       decimal.Decimal
}

// NewSalesInvoice maps an order onto an invoice-create request.
func NewSalesInvoice(order Order, cashRegisterCode string) SalesInvoice {
	items := make([]SalesInvoiceItem, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		items = append(items, SalesInvoiceItem{
			ProductCode: strings.TrimSpace(li.ProductCode),
			Description: li.Title,
			Quantity:    li.Quantity,
			Price:       li.UnitPrice,
		})
	}
	return SalesInvoice{
		BuyerName:        order.Customer.FullName(),
		BuyerEmail:       order.Customer.Email,
		BuyerAddress:     order.Customer.Address,
		Items:            items,
		Total:            order.Total,
		Currency:         order.Currency,
		PaymentMethod:    order.PaymentMethod,
		CashRegisterCode: cashRegisterCode,
	}
}

// Invoice is created as a side effect of the workflow. The public URL is
// resolved by a second call after creation.
type Invoice struct {
	DocumentID string
	PublicURL  string
}

// Confirmed returns true when both the document identifier and the public URL are known.
// Only a confirmed invoice may be written to the order note.
func (i Invoice) Confirmed() bool {
	return i.DocumentID != "" && i.PublicURL != ""
}

// InvoiceNote is the order note text recorded for a confirmed invoice.
func InvoiceNote(publicURL string) string {
	return "Invoice generated: " + publicURL
}
