package invoicing

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// e-Računi API method names
const (
	MethodProductList              = "ProductList"
	MethodProductCreate            = "ProductCreate"
	MethodProductUpdate            = "ProductUpdate"
	MethodSalesInvoiceCreate       = "SalesInvoiceCreate"
	MethodSalesInvoiceGetPublicURL = "SalesInvoiceGetPublicURL"
)

// eracuniRequest is the envelope posted for every method
type eracuniRequest struct {
	Username   string `json:"username"`
	MD5Pass    string `json:"md5pass"`
	Token      string `json:"token"`
	Method     string `json:"method"`
	Parameters any    `json:"parameters"`
}

// eracuniEnvelope wraps every result as {response:{result: ...}}
type eracuniEnvelope struct {
	Response *struct {
		Result json.RawMessage `json:"result"`
	} `json:"response"`
}

// result returns the raw result payload, or nil when the envelope is absent
func (e eracuniEnvelope) result() json.RawMessage {
	if e.Response == nil {
		return nil
	}
	r := bytes.TrimSpace(e.Response.Result)
	if len(r) == 0 || bytes.Equal(r, []byte("null")) {
		return nil
	}
	return r
}

// flexString accepts a JSON string or number; document IDs and codes arrive as either.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// ---------------------------------------------------------------------------
// Product
// ---------------------------------------------------------------------------

// eracuniProductListItem is one element of the ProductList result
type eracuniProductListItem struct {
	DocumentID         flexString `json:"documentID"`
	ProductCode        flexString `json:"productCode"`
	Name               string     `json:"name"`
	GrossPrice         flexString `json:"grossPrice"`
	PackingQuantity    flexString `json:"packingQuantity"`
	Unit               string     `json:"unit"`
	VATTransactionType flexString `json:"vatTransactionType"`
	VATPercentage      flexString `json:"vatPercentage"`
}

// eracuniProductParams is the parameters object of ProductCreate / ProductUpdate
type eracuniProductParams struct {
	Product eracuniProduct `json:"product"`
}

// eracuniProduct is the product written on create and update. Numbers are sent unquoted.
type eracuniProduct struct {
	DocumentID         string      `json:"documentID,omitempty"`
	ProductCode        string      `json:"productCode"`
	Name               string      `json:"name"`
	GrossPrice         json.Number `json:"grossPrice"`
	PackingQuantity    json.Number `json:"packingQuantity"`
	Unit               string      `json:"unit"`
	VATTransactionType string      `json:"vatTransactionType"`
	VATPercentage      json.Number `json:"vatPercentage"`
}

// eracuniDocumentResult is the {documentID} result of create calls
type eracuniDocumentResult struct {
	DocumentID flexString `json:"documentID"`
}

// ---------------------------------------------------------------------------
// Sales invoice
// ---------------------------------------------------------------------------

// eracuniSalesInvoiceParams is the parameters object of SalesInvoiceCreate
type eracuniSalesInvoiceParams struct {
	SalesInvoice eracuniSalesInvoice `json:"SalesInvoice"`
}

type eracuniSalesInvoice struct {
	BuyerName        string                    `json:"buyerName"`
	BuyerEmail       string                    `json:"buyerEmail,omitempty"`
	BuyerStreet      string                    `json:"buyerStreet,omitempty"`
	BuyerPostalCode  string                    `json:"buyerPostalCode,omitempty"`
	BuyerCity        string                    `json:"buyerCity,omitempty"`
	BuyerCountry     string                    `json:"buyerCountry,omitempty"`
	Currency         string                    `json:"currency,omitempty"`
	MethodOfPayment  string                    `json:"methodOfPayment,omitempty"`
	CashRegister     string                    `json:"cashRegister,omitempty"`
	TotalAmount      json.Number               `json:"totalAmount,omitempty"`
	Items            []eracuniSalesInvoiceItem `json:"Items"`
}

type eracuniSalesInvoiceItem struct {
	ProductCode string      `json:"productCode"`
	Description string      `json:"description,omitempty"`
	Quantity    int64       `json:"quantity"`
	Price       json.Number `json:"price,omitempty"`
}

// eracuniPublicURLParams is the parameters object of SalesInvoiceGetPublicURL
type eracuniPublicURLParams struct {
	DocumentID string `json:"documentID"`
}

type eracuniPublicURLResult struct {
	PublicURL string `json:"publicURL"`
}

// decimalOrZero parses a remote numeric field; blanks and garbage read as zero
func decimalOrZero(s flexString) decimal.Decimal {
	d, err := decimal.NewFromString(string(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// number renders a decimal as an unquoted JSON number
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
