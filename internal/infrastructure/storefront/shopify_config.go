package storefront

import (
	"errors"
	"strings"
)

// ShopifyConfig holds configuration for the Shopify Admin REST API
type ShopifyConfig struct {
	// ShopDomain is the myshopify domain, e.g. "example.myshopify.com"
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// APIVersion is the dated Admin API version
	APIVersion string
	// BaseURL overrides "https://<ShopDomain>"; used for proxies and tests
	BaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// ShopifyDefaultAPIVersion is used when no version is configured
	ShopifyDefaultAPIVersion = "2025-04"

	shopifyDefaultTimeoutSeconds = 30
)

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingDomain = errors.New("shopify: shop domain is required")
	ErrShopifyConfigMissingToken  = errors.New("shopify: access token is required")
)

// NewShopifyConfig creates a new Shopify configuration with defaults
func NewShopifyConfig(shopDomain, accessToken string) *ShopifyConfig {
	return &ShopifyConfig{
		ShopDomain:     shopDomain,
		AccessToken:    accessToken,
		APIVersion:     ShopifyDefaultAPIVersion,
		TimeoutSeconds: shopifyDefaultTimeoutSeconds,
	}
}

// Validate normalizes the domain and fills in defaults
func (c *ShopifyConfig) Validate() error {
	c.ShopDomain = NormalizeShopDomain(c.ShopDomain)
	if c.ShopDomain == "" && c.BaseURL == "" {
		return ErrShopifyConfigMissingDomain
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingToken
	}
	if c.APIVersion == "" {
		c.APIVersion = ShopifyDefaultAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = shopifyDefaultTimeoutSeconds
	}
	return nil
}

// AdminURL returns the Admin API root, e.g. "https://shop.myshopify.com/admin/api/2025-04"
func (c *ShopifyConfig) AdminURL() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if base == "" {
		base = "https://" + c.ShopDomain
	}
	return base + "/admin/api/" + c.APIVersion
}

// NormalizeShopDomain strips scheme and trailing slashes from a shop domain
func NormalizeShopDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}
