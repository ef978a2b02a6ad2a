package intent

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	c := New(nil)
	tests := []struct {
		query string
		want  Intent
	}{
		{"Ahoj, ako sa máš?", IntentGreeting},
		{"Dobrý deň", IntentGreeting},
		{"Koľko máte produktov?", IntentCount},
		{"Aká je cena šampónu?", IntentPrice},
		{"how much is shipping", IntentPrice},
		{"Je tento gél skladom?", IntentAvailability},
		{"Máte nejaké zľavy?", IntentDiscount},
		{"čo je vo výpredaji", IntentDiscount},
		{"Aké kategórie ponúkate?", IntentCategory},
		{"hľadám darček pre mamu", IntentGift},
		{"odporuč mi niečo na vlasy", IntentRecommendation},
		{"niečo na čistenie okien", IntentCleaning},
		{"dekoratívna kozmetika", IntentCosmetics},
		{"prací prášok persil", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := c.Classify(tt.query); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassifyOrderMatters(t *testing.T) {
	c := New(nil)
	// Matches both the greeting and price groups; the earlier group wins.
	if got := c.Classify("ahoj, aká je cena?"); got != IntentGreeting {
		t.Errorf("Classify = %q, want greeting (earlier rule group)", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New(nil)
	first := c.Classify("máte zľavy na šampóny?")
	for i := 0; i < 10; i++ {
		if got := c.Classify("máte zľavy na šampóny?"); got != first {
			t.Fatalf("run %d: Classify = %q, first run %q", i, got, first)
		}
	}
}

func TestExpand(t *testing.T) {
	c := New(nil)

	// Canonical term expands to its surface forms.
	got := c.Expand([]string{"zlava"})
	if got[0] != "zlava" {
		t.Errorf("Expand()[0] = %q, input tokens must come first", got[0])
	}
	if !contains(got, "akcia") || !contains(got, "vypredaj") {
		t.Errorf("Expand(zlava) = %v, missing surface forms", got)
	}

	// Surface form expands back to its canonical term.
	got = c.Expand([]string{"akcia"})
	if !contains(got, "zlava") {
		t.Errorf("Expand(akcia) = %v, missing canonical term", got)
	}
}

func TestExpandDeduplicates(t *testing.T) {
	c := New(nil)
	got := c.Expand([]string{"zlava", "akcia"})
	seen := make(map[string]int)
	for _, tok := range got {
		seen[tok]++
	}
	for tok, n := range seen {
		if n > 1 {
			t.Errorf("token %q appears %d times", tok, n)
		}
	}
}

func TestExpandUnknownTokens(t *testing.T) {
	c := New(nil)
	got := c.Expand([]string{"persil"})
	if !reflect.DeepEqual(got, []string{"persil"}) {
		t.Errorf("Expand(persil) = %v, want unchanged", got)
	}
}

func TestStripStopWords(t *testing.T) {
	got := StripStopWords([]string{"mate", "nejake", "zlavy", "na", "sampony"})
	want := []string{"nejake", "zlavy", "sampony"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StripStopWords = %v, want %v", got, want)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `- intent: greeting
  patterns: ["servus"]
- intent: price
  patterns: ["kolko to stoji"]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(rules))
	}

	c := New(rules)
	if got := c.Classify("Servus!"); got != IntentGreeting {
		t.Errorf("Classify = %q, want greeting from loaded rules", got)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules("/nonexistent/rules.yaml"); err == nil {
		t.Error("LoadRules() error = nil for missing file")
	}
}

func contains(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
