package catalog

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/shopchat/catalog/internal/textnorm"
)

const (
	maxDescriptionLen = 500
	defaultCurrency   = "EUR"
)

// Field priority tables. Feeds supply the same logical field under different
// key names; resolution is strictly left-to-right, first non-empty wins.
// The order is a behavioral contract, not an implementation detail.
var (
	idKeys           = []string{"g:id", "id", "ID", "ITEM_ID", "code", "CODE"}
	titleKeys        = []string{"g:title", "title", "PRODUCT", "name", "NAME", "PRODUCTNAME"}
	descriptionKeys  = []string{"g:description", "description", "DESCRIPTION", "DESCRIPTION_SHORT", "content"}
	priceKeys        = []string{"g:price", "price", "PRICE", "PRICE_VAT"}
	salePriceKeys    = []string{"g:sale_price", "sale_price", "STANDARD_PRICE", "compareAtPrice"}
	categoryKeys     = []string{"g:product_type", "g:google_product_category", "category", "CATEGORY", "CATEGORYTEXT"}
	brandKeys        = []string{"g:brand", "brand", "BRAND", "MANUFACTURER", "vendor"}
	availabilityKeys = []string{"g:availability", "availability", "AVAILABILITY", "stock"}
	imageKeys        = []string{"g:image_link", "g:image", "image", "IMGURL", "imageUrl", "IMAGE"}
	urlKeys          = []string{"g:link", "link", "URL", "url", "PRODUCT_URL"}
	eanKeys          = []string{"g:gtin", "ean", "EAN", "gtin", "GTIN"}
	stockKeys        = []string{"quantity", "STOCK_QUANTITY", "stock_quantity", "COUNT"}
)

// Transformer maps raw feed records to canonical Products.
type Transformer struct {
	logger *slog.Logger
	newID  func() string
}

// NewTransformer creates a Transformer with a random fallback id generator.
func NewTransformer() *Transformer {
	return &Transformer{
		logger: slog.Default().With("component", "transformer"),
		newID:  randomProductID,
	}
}

// Transform maps a raw record onto a Product. Missing optional fields fall
// back to defaults and never cause the record to be dropped.
func (t *Transformer) Transform(rec map[string]string) Product {
	id := resolve(rec, idKeys)
	if id == "" {
		id = t.newID()
		t.logger.Debug("record has no id, generated one", "id", id)
	}

	title := strings.TrimSpace(resolve(rec, titleKeys))
	if title == "" {
		t.logger.Debug("record has no title", "id", id)
	}

	description := truncateRunes(textnorm.StripMarkup(resolve(rec, descriptionKeys)), maxDescriptionLen)

	price := parsePrice(resolveDefault(rec, priceKeys, "0"))

	var salePrice *float64
	hasDiscount := false
	discountPct := 0
	if raw := resolve(rec, salePriceKeys); raw != "" {
		sp := parsePrice(raw)
		if sp > 0 && sp < price {
			salePrice = &sp
			hasDiscount = true
			discountPct = int((1-sp/price)*100 + 0.5)
		}
	}

	p := Product{
		ID:                 id,
		Title:              title,
		Description:        description,
		Price:              price,
		SalePrice:          salePrice,
		HasDiscount:        hasDiscount,
		DiscountPercentage: discountPct,
		Category:           strings.TrimSpace(resolve(rec, categoryKeys)),
		Brand:              strings.TrimSpace(resolve(rec, brandKeys)),
		Available:          parseAvailability(resolveDefault(rec, availabilityKeys, "in stock")),
		StockQuantity:      parseStock(resolve(rec, stockKeys)),
		Image:              resolve(rec, imageKeys),
		URL:                resolve(rec, urlKeys),
		EAN:                resolve(rec, eanKeys),
		Currency:           defaultCurrency,
	}
	return p
}

// resolve returns the first non-empty value among the candidate keys.
func resolve(rec map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

func resolveDefault(rec map[string]string, keys []string, def string) string {
	if v := resolve(rec, keys); v != "" {
		return v
	}
	return def
}

// parsePrice extracts a decimal price from free-form text. All characters
// except digits and separators are dropped; a comma is treated as the
// decimal separator when no dot is present. Unparseable input yields 0.
func parsePrice(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = numericPrefix(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// numericPrefix returns the longest leading substring of s that still parses
// as a decimal number (digits with at most one dot).
func numericPrefix(s string) string {
	end := 0
	seenDot := false
	for i, r := range s {
		if r >= '0' && r <= '9' {
			end = i + 1
			continue
		}
		if r == '.' && !seenDot {
			seenDot = true
			continue
		}
		break
	}
	return s[:end]
}

// availabilityTruthy is the fixed set of raw values that mean "in stock".
var availabilityTruthy = []string{"in stock", "available"}

func parseAvailability(raw string) bool {
	lower := strings.ToLower(raw)
	for _, t := range availabilityTruthy {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return raw == "1" || lower == "true"
}

func parseStock(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func randomProductID() string {
	return fmt.Sprintf("product_%09x", rand.Int63n(1<<36))
}
