package assistant

import (
	"fmt"
	"strings"

	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/intent"
)

const (
	maxRenderedCategories = 20
	maxRenderedDescLen    = 150
)

// RenderInput carries everything the assembler may need for one context
// block. Unused fields are ignored by the active intent's layout.
type RenderInput struct {
	Query      string
	Metadata   catalog.Metadata
	Products   []catalog.ScoredProduct
	Categories []catalog.NameCount
	Brands     []catalog.NameCount
}

// RenderContext renders the retrieval outcome into the deterministic text
// block handed to the completion service. The block never contains products
// the retrieval step did not return.
func RenderContext(in intent.Intent, input RenderInput) string {
	var b strings.Builder

	b.WriteString("CATALOG STATS:\n")
	fmt.Fprintf(&b, "- Products in catalog: %d\n", input.Metadata.Count)
	if input.Metadata.LastUpdate.IsZero() {
		b.WriteString("- Last update: never\n\n")
	} else {
		fmt.Fprintf(&b, "- Last update: %s\n\n", input.Metadata.LastUpdate.Format("2006-01-02T15:04:05Z07:00"))
	}

	if in == intent.IntentCategory && len(input.Categories) > 0 {
		b.WriteString("AVAILABLE CATEGORIES:\n")
		for i, c := range input.Categories {
			if i == maxRenderedCategories {
				break
			}
			fmt.Fprintf(&b, "- %s (%d products)\n", c.Name, c.Count)
		}
		b.WriteString("\n")
	}

	if len(input.Products) == 0 {
		fmt.Fprintf(&b, "No products found for %q.\n", input.Query)
		b.WriteString("Try different search terms or ask about a category.\n")
		return b.String()
	}

	b.WriteString("MATCHED PRODUCTS (ranked by relevance):\n\n")
	for i, p := range input.Products {
		fmt.Fprintf(&b, "%d. **%s**", i+1, p.Title)
		if p.Score > 0 {
			fmt.Fprintf(&b, " [score: %d]", p.Score)
		}
		b.WriteString("\n")
		writeProductLines(&b, p.Product)
		b.WriteString("\n")
	}
	return b.String()
}

func writeProductLines(b *strings.Builder, p catalog.Product) {
	if p.HasDiscount && p.SalePrice != nil {
		fmt.Fprintf(b, "   Price: €%.2f (originally €%.2f, -%d%%)\n",
			*p.SalePrice, p.Price, p.DiscountPercentage)
	} else {
		fmt.Fprintf(b, "   Price: €%.2f\n", p.Price)
	}

	if p.Available {
		b.WriteString("   Availability: IN STOCK")
		if p.StockQuantity > 0 {
			fmt.Fprintf(b, " (%d pcs)", p.StockQuantity)
		}
	} else {
		b.WriteString("   Availability: OUT OF STOCK")
	}
	b.WriteString("\n")

	if p.Category != "" {
		fmt.Fprintf(b, "   Category: %s\n", p.Category)
	}
	if p.Brand != "" {
		fmt.Fprintf(b, "   Brand: %s\n", p.Brand)
	}
	if p.Description != "" {
		desc := p.Description
		if truncated := []rune(desc); len(truncated) > maxRenderedDescLen {
			desc = string(truncated[:maxRenderedDescLen]) + "..."
		}
		fmt.Fprintf(b, "   %s\n", desc)
	}
	if p.URL != "" {
		fmt.Fprintf(b, "   %s\n", p.URL)
	}
}
