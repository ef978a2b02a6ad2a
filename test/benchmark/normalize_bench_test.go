package benchmark

import (
	"strings"
	"testing"

	"github.com/shopchat/catalog/internal/textnorm"
)

var sampleTexts = map[string]string{
	"short": "Šampón Nivea 400ml na každodenné použitie",
	"medium": `Prací gél na farebnú bielizeň s vôňou levandule. Vhodný pre
        citlivú pokožku, dermatologicky testovaný. Balenie vystačí na 60
        praní. Zloženie bez fosfátov, šetrné k životnému prostrediu.`,
	"long": strings.Repeat(`Sprchový gél s hydratačným komplexom a panthenolom
        upokojuje pokožku po celý deň. Jemné zloženie s neutrálnym pH je
        vhodné na každodennú hygienu celej rodiny vrátane detí od troch
        rokov. Vôňa bielych kvetov a zeleného čaju. `, 20),
}

func BenchmarkNormalize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = textnorm.Normalize(text)
			}
		})
	}
}

func BenchmarkNormalizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = textnorm.Normalize(text)
		}
	})
}

func BenchmarkTokens(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = textnorm.Tokens(text, 3, 50)
	}
}

func BenchmarkStripMarkup(b *testing.B) {
	text := "<p>Prací <b>gél</b> na farebnú bielizeň&nbsp;&amp; jemnú vlnu</p>" +
		strings.Repeat("<br/><span>dermatologicky testovaný</span>", 30)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = textnorm.StripMarkup(text)
	}
}
