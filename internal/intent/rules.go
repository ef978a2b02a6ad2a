package intent

// DefaultRules is the built-in ordered rule table. Patterns are matched
// against normalized (lower-cased, diacritic-free) query text, so "koľko"
// matches "kolko". Order matters: earlier groups win.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: IntentGreeting, Patterns: []string{"ahoj", "dobry den", "cau", "zdravim", "hello", "hi "}},
		{Intent: IntentCount, Patterns: []string{"kolko mate", "kolko produktov", "pocet", "celkom", "vsetky produkty", "how many"}},
		{Intent: IntentPrice, Patterns: []string{"cena", "kolko stoji", "za kolko", "cennik", "price", "how much"}},
		{Intent: IntentAvailability, Patterns: []string{"skladom", "dostupny", "dostupne", "mame", "k dispozicii", "in stock"}},
		{Intent: IntentDiscount, Patterns: []string{"zlava", "akcia", "zlacnene", "vypredaj", "promo", "discount", "sale"}},
		{Intent: IntentCategory, Patterns: []string{"kategoria", "kategorie", "druhy", "typy", "sortiment", "ponuka", "categories"}},
		{Intent: IntentGift, Patterns: []string{"darcek", "dar pre", "gift", "prezent"}},
		{Intent: IntentRecommendation, Patterns: []string{"odporuc", "porad", "navrhni", "najlepsie", "top", "popularny", "co mi", "recommend"}},
		{Intent: IntentCleaning, Patterns: []string{"cistenie", "upratovanie", "umyvanie", "dezinfekcia"}},
		{Intent: IntentCosmetics, Patterns: []string{"kozmetika", "makeup", "krem", "plet", "vlasy", "sampon"}},
	}
}

// defaultSynonyms maps canonical domain terms to alternate surface forms,
// used for query expansion on an empty first pass.
var defaultSynonyms = map[string][]string{
	"cena":      {"ceny", "kolko", "stoji", "price", "eur", "euro", "cennik"},
	"produkt":   {"tovar", "vyrobok", "artikel", "polozka", "item", "produkty", "sortiment"},
	"dostupny":  {"skladom", "dispozicii", "sklade", "available", "mame", "dostupnost", "dostupne"},
	"zlava":     {"akcia", "discount", "sale", "zlacnene", "promo", "kupon", "vypredaj"},
	"kupit":     {"objednat", "nakupit", "buy", "purchase", "order", "kosik"},
	"hladat":    {"najst", "vyhladat", "search", "find", "odporucit", "poradit"},
	"velkost":   {"size", "rozmer", "cislo", "velkosti", "ml", "gram", "kg", "liter"},
	"farba":     {"color", "colour", "odtien", "farby", "farebny"},
	"doprava":   {"dorucenie", "shipping", "delivery", "postovne", "zasielka", "kurier"},
	"drogeria":  {"kozmetika", "hygiena", "mydlo", "sampon", "krem", "drogerie"},
	"cistenie":  {"cistit", "upratovanie", "upratovat", "dezinfekcia", "umyvanie"},
	"pranie":    {"prat", "pracie", "prasok", "gel", "avivaz", "pradlo"},
	"kozmetika": {"makeup", "krem", "plet", "tvar", "oci", "pery", "ruz", "maskara"},
	"vlasy":     {"sampon", "kondicioner", "lak", "gel", "farba", "farbenie"},
	"telo":      {"sprchovy", "telove", "mlieko", "olej", "hydratacia", "starostlivost"},
	"zuby":      {"zubna", "pasta", "kefka", "ustna", "voda", "nit"},
	"parfem":    {"parfum", "vona", "deodorant", "antiperspirant", "toaletna"},
	"deti":      {"detsky", "baby", "dieta", "kojenec", "plienky", "puder"},
	"domacnost": {"wc", "kuchyna", "podlaha", "okna", "sklo", "nabytok"},
}

// StopWords are query tokens with no retrieval value, removed before the
// word-index scan.
var StopWords = map[string]struct{}{
	"a": {}, "je": {}, "to": {}, "na": {}, "v": {}, "sa": {}, "so": {}, "pre": {},
	"ako": {}, "ze": {}, "ma": {}, "mi": {}, "me": {}, "si": {}, "su": {}, "som": {},
	"ale": {}, "ani": {}, "az": {}, "ak": {}, "bo": {}, "by": {}, "co": {}, "ci": {},
	"do": {}, "ho": {}, "im": {}, "ju": {}, "ku": {}, "ne": {}, "ni": {}, "no": {},
	"od": {}, "po": {}, "pri": {}, "ta": {}, "te": {}, "ti": {}, "tu": {}, "ty": {},
	"uz": {}, "vo": {}, "za": {}, "mate": {}, "mam": {}, "chcem": {}, "potrebujem": {},
	"the": {}, "and": {}, "or": {}, "is": {}, "are": {}, "this": {}, "that": {},
}

// StripStopWords filters stop words out of a token list.
func StripStopWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := StopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}
