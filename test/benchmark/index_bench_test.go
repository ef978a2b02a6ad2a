package benchmark

import (
	"fmt"
	"testing"

	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/index"
)

// syntheticCatalog builds n products with overlapping vocabulary so the
// persistence filter has realistic work to do.
func syntheticCatalog(n int) []catalog.Product {
	brands := []string{"Nivea", "Fa", "Persil", "Ariel", "Palmolive"}
	categories := []string{"Vlasová kozmetika", "Pranie", "Sprchové gély", "Čistenie domácnosti"}
	products := make([]catalog.Product, n)
	for i := range products {
		products[i] = catalog.Product{
			ID:    fmt.Sprintf("p%06d", i),
			Title: fmt.Sprintf("Produkt %s číslo %d s jemnou vôňou", brands[i%len(brands)], i),
			Description: fmt.Sprintf(
				"Kvalitný výrobok značky %s vhodný na každodenné použitie, balenie %d ml",
				brands[i%len(brands)], 100+(i%10)*50,
			),
			Category:    categories[i%len(categories)],
			Brand:       brands[i%len(brands)],
			HasDiscount: i%7 == 0,
		}
	}
	return products
}

func BenchmarkIndexBuild(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		products := syntheticCatalog(size)
		b.Run(fmt.Sprintf("products_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = index.Build(products)
			}
		})
	}
}
