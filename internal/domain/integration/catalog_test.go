package integration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductName(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		variant  string
		expected string
	}{
		{"both titles", "T-Shirt", "Red / M", "T-Shirt Red / M"},
		{"empty variant", "Mug", "", "Mug"},
		{"surrounding spaces", "  Cap ", " Blue ", "Cap Blue"},
		// "c" + combining caron composes to "č"
		{"nfc normalized", "Maji\u0063\u030ca", "S", "Maji\u010da S"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProductName(tt.product, tt.variant))
		})
	}
}

func TestNewRemoteProduct(t *testing.T) {
	t.Run("synthesizes fixed defaults", func(t *testing.T) {
		v := LocalVariant{
			ID:                "101",
			ProductTitle:      "Mug",
			Title:             "Large",
			Barcode:           " 3830001 ",
			Price:             decimal.RequireFromString("12.50"),
			InventoryQuantity: 7,
		}

		p, err := NewRemoteProduct(v)
		require.NoError(t, err)

		assert.Empty(t, p.DocumentID)
		assert.Equal(t, "3830001", p.ProductCode)
		assert.Equal(t, "Mug Large", p.Name)
		assert.True(t, p.GrossPrice.Equal(decimal.RequireFromString("12.5")))
		assert.True(t, p.PackingQuantity.Equal(decimal.NewFromInt(7)))
		assert.Equal(t, "kos", p.Unit)
		assert.Equal(t, "0", p.VATTransactionType)
		assert.True(t, p.VATPercentage.Equal(decimal.NewFromInt(22)))
	})

	t.Run("rejects missing barcode", func(t *testing.T) {
		_, err := NewRemoteProduct(LocalVariant{ID: "1", Barcode: "   "})
		assert.ErrorIs(t, err, ErrValidationFailure)
	})
}

func TestRemoteCatalog_Match(t *testing.T) {
	catalog := NewRemoteCatalog([]RemoteProduct{
		{DocumentID: "D1", ProductCode: "SKU1"},
		{DocumentID: "D2", ProductCode: "SKU1"},
		{DocumentID: "D3", ProductCode: ""},
	})

	assert.Equal(t, 1, catalog.Len())
	assert.Equal(t, MatchResult{Matched: true, DocumentID: "D1"}, catalog.Match(LocalVariant{Barcode: "SKU1"}))
	assert.Equal(t, MatchResult{}, catalog.Match(LocalVariant{Barcode: "SKU2"}))
	assert.Equal(t, MatchResult{}, catalog.Match(LocalVariant{Barcode: ""}))

	var empty *RemoteCatalog
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Match(LocalVariant{Barcode: "SKU1"}).Matched)
}

func TestPlanAction(t *testing.T) {
	catalog := NewRemoteCatalog([]RemoteProduct{{DocumentID: "D1", ProductCode: "SKU1"}})

	tests := []struct {
		name     string
		variant  LocalVariant
		action   ActionKind
		document string
		reason   string
	}{
		{"matched is update", LocalVariant{ID: "1", Barcode: "SKU1"}, ActionUpdate, "D1", ""},
		{"unmatched is create", LocalVariant{ID: "2", Barcode: "SKU2"}, ActionCreate, "", ""},
		{"no barcode is skip", LocalVariant{ID: "3"}, ActionSkip, "", SkipReasonNoBarcode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pa := PlanAction(catalog, tt.variant)
			assert.Equal(t, tt.action, pa.Action)
			assert.Equal(t, tt.document, pa.DocumentID)
			assert.Equal(t, tt.reason, pa.Reason)
			assert.Equal(t, tt.variant.ID, pa.VariantID)
		})
	}
}

func TestReconcileReport_Finish(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		outcomes []OutcomeKind
		expected SyncStatus
	}{
		{"empty pass", nil, SyncStatusSuccess},
		{"all good", []OutcomeKind{OutcomeCreated, OutcomeUpdated, OutcomeSkipped}, SyncStatusSuccess},
		{"some failed", []OutcomeKind{OutcomeCreated, OutcomeFailed}, SyncStatusPartial},
		{"all failed", []OutcomeKind{OutcomeFailed, OutcomeFailed, OutcomeSkipped}, SyncStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconcileReport(start)
			for _, k := range tt.outcomes {
				r.Record(VariantOutcome{Outcome: k})
			}
			r.Finish(start.Add(3 * time.Second))

			assert.Equal(t, tt.expected, r.Status)
			assert.Equal(t, 3*time.Second, r.Duration())
		})
	}
}

func TestReconcileReport_Counters(t *testing.T) {
	r := NewReconcileReport(time.Now())
	r.Record(VariantOutcome{Outcome: OutcomeCreated})
	r.Record(VariantOutcome{Outcome: OutcomeCreated})
	r.Record(VariantOutcome{Outcome: OutcomeUpdated})
	r.Record(VariantOutcome{Outcome: OutcomeFailed})
	r.Record(VariantOutcome{Outcome: OutcomeSkipped, Reason: SkipReasonNoBarcode})

	assert.NotEqual(t, r.RunID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, 2, r.Created())
	assert.Equal(t, 1, r.Updated())
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, 1, r.Skipped())
	assert.Zero(t, r.Duration())
}
