package integration

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Fixed attributes applied to every product synthesized for the invoicing system.
const (
	DefaultUnit               = "kos"
	DefaultVATTransactionType = "0"
)

// DefaultVATPercentage is the VAT rate applied to synthesized products.
var DefaultVATPercentage = decimal.NewFromInt(22)

// ---------------------------------------------------------------------------
// Storefront side
// ---------------------------------------------------------------------------

// LocalProduct is a storefront product with its nested variants.
type LocalProduct struct {
	ID       string
	Title    string
	Variants []LocalVariant
}

// LocalVariant is a sellable unit owned by the storefront. It is read-only to this system.
type LocalVariant struct {
	ID                string
	ProductTitle      string
	Title             string
	Barcode           string
	SKU               string
	Price             decimal.Decimal
	InventoryQuantity int64
	UpdatedAt         time.Time
}

// ProductCode returns the cross-system join key (the trimmed barcode).
func (v LocalVariant) ProductCode() string {
	return strings.TrimSpace(v.Barcode)
}

// HasBarcode reports whether the variant can be matched against the remote catalog.
func (v LocalVariant) HasBarcode() bool {
	return v.ProductCode() != ""
}

// DisplayName is the name used for the remote product record.
func (v LocalVariant) DisplayName() string {
	return ProductName(v.ProductTitle, v.Title)
}

// ProductName joins a product title and a variant title into one NFC-normalized name.
func ProductName(productTitle, variantTitle string) string {
	name := strings.TrimSpace(strings.TrimSpace(productTitle) + " " + strings.TrimSpace(variantTitle))
	return norm.NFC.String(name)
}

// ---------------------------------------------------------------------------
// Invoicing side
// ---------------------------------------------------------------------------

// RemoteProduct is a product record owned by the invoicing system.
type RemoteProduct struct {
	// DocumentID is assigned by the invoicing system on creation
	DocumentID         string
	ProductCode        string
	Name               string
	GrossPrice         decimal.Decimal
	PackingQuantity    decimal.Decimal
	Unit               string
	VATTransactionType string
	VATPercentage      decimal.Decimal
}

// NewRemoteProduct synthesizes the remote record for a variant. Every mutable
// field is recomputed from local values, so the result serves for both create
// and full-overwrite update.
func NewRemoteProduct(v LocalVariant) (RemoteProduct, error) {
	if !v.HasBarcode() {
		return RemoteProduct{}, ErrValidationFailure
	}
	return RemoteProduct{
		ProductCode:        v.ProductCode(),
		Name:               v.DisplayName(),
		GrossPrice:         v.Price,
		PackingQuantity:    decimal.NewFromInt(v.InventoryQuantity),
		Unit:               DefaultUnit,
		VATTransactionType: DefaultVATTransactionType,
		VATPercentage:      DefaultVATPercentage,
	}, nil
}

// MatchResult is derived per pass and never cached across runs.
type MatchResult struct {
	Matched    bool
	DocumentID string
}

// RemoteCatalog indexes the remote products of a single pass by product code.
type RemoteCatalog struct {
	byCode map[string]RemoteProduct
}

// NewRemoteCatalog builds the index. Products without a code are ignored; on
// duplicate codes the first record wins.
func NewRemoteCatalog(products []RemoteProduct) *RemoteCatalog {
	byCode := make(map[string]RemoteProduct, len(products))
	for _, p := range products {
		code := strings.TrimSpace(p.ProductCode)
		if code == "" {
			continue
		}
		if _, exists := byCode[code]; exists {
			continue
		}
		byCode[code] = p
	}
	return &RemoteCatalog{byCode: byCode}
}

// Match looks up a variant by its product code.
func (c *RemoteCatalog) Match(v LocalVariant) MatchResult {
	if c == nil || !v.HasBarcode() {
		return MatchResult{}
	}
	p, ok := c.byCode[v.ProductCode()]
	if !ok {
		return MatchResult{}
	}
	return MatchResult{Matched: true, DocumentID: p.DocumentID}
}

// Len returns the number of indexed products.
func (c *RemoteCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byCode)
}
