package integration

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
)

// VariantIDFromGID returns the trailing path segment of a GraphQL global ID
// ("gid://shopify/ProductVariant/123" -> "123"). Plain IDs are returned trimmed.
func VariantIDFromGID(gid string) string {
	gid = strings.TrimSpace(gid)
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

// FilterRecentlyChanged narrows a webhook payload to the variants named in
// changedIDs whose UpdatedAt is strictly after now-window.
// Variants are matched by identifier, never by barcode. Unknown identifiers
// are logged and skipped. Output follows changedIDs order without duplicates.
func FilterRecentlyChanged(
	all []integration.LocalVariant,
	changedIDs []string,
	window time.Duration,
	now time.Time,
	logger *zap.Logger,
) []integration.LocalVariant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return selectVariants(all, changedIDs, logger, func(v integration.LocalVariant) bool {
		if now.Sub(v.UpdatedAt) < window {
			return true
		}
		logger.Debug("Skipping variant not recently changed",
			zap.String("variant_id", v.ID),
			zap.Time("updated_at", v.UpdatedAt),
			zap.Duration("window", window),
		)
		return false
	})
}

// SelectChangedVariants resolves changedIDs against the payload variants
// without any time filter. Matching and ordering are as in FilterRecentlyChanged.
func SelectChangedVariants(
	all []integration.LocalVariant,
	changedIDs []string,
	logger *zap.Logger,
) []integration.LocalVariant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return selectVariants(all, changedIDs, logger, func(integration.LocalVariant) bool { return true })
}

func selectVariants(
	all []integration.LocalVariant,
	changedIDs []string,
	logger *zap.Logger,
	keep func(integration.LocalVariant) bool,
) []integration.LocalVariant {
	byID := make(map[string]integration.LocalVariant, len(all))
	for _, v := range all {
		byID[VariantIDFromGID(v.ID)] = v
	}

	seen := make(map[string]struct{}, len(changedIDs))
	out := make([]integration.LocalVariant, 0, len(changedIDs))
	for _, raw := range changedIDs {
		id := VariantIDFromGID(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		v, ok := byID[id]
		if !ok {
			logger.Warn("Changed variant not found in payload", zap.String("variant_id", raw))
			continue
		}
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
