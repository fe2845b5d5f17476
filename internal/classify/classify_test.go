package classify

import (
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestCategorize_ExactMatch(t *testing.T) {
	for _, cat := range models.Categories() {
		if got := Categorize(string(cat)); got != cat {
			t.Errorf("Categorize(%q) = %q, want %q", cat, got, cat)
		}
	}
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	if got := Categorize("TECHNOLOGY"); got != models.CategoryTechnology {
		t.Errorf("Categorize(TECHNOLOGY) = %q, want Technology", got)
	}
	if got := Categorize("  finance  "); got != models.CategoryFinance {
		t.Errorf("Categorize(finance) = %q, want Finance", got)
	}
}

func TestCategorize_Substring(t *testing.T) {
	if got := Categorize("My Personal Notes"); got != models.CategoryPersonal {
		t.Errorf("got %q, want Personal", got)
	}
	if got := Categorize("tech"); got != models.CategoryTechnology {
		t.Errorf("got %q, want Technology (label contained in category name)", got)
	}
}

func TestCategorize_Keywords(t *testing.T) {
	cases := []struct {
		label string
		want  models.Category
	}{
		{"Crypto Trading Basics", models.CategoryFinance},
		{"docker cheatsheet", models.CategoryTechnology},
		{"morning meditation routine", models.CategoryPersonal},
		{"sprint planning", models.CategoryProjects},
		{"philosophy of science", models.CategoryKnowledge},
		{"installation guide", models.CategoryReference},
	}
	for _, c := range cases {
		if got := Categorize(c.label); got != c.want {
			t.Errorf("Categorize(%q) = %q, want %q", c.label, got, c.want)
		}
	}
}

func TestCategorize_DefaultsToKnowledge(t *testing.T) {
	for _, label := range []string{"", "   ", "zzyzx qwfp", "42 17 99"} {
		if got := Categorize(label); got != models.CategoryKnowledge {
			t.Errorf("Categorize(%q) = %q, want Knowledge", label, got)
		}
	}
}

func TestCategorize_DeclarationOrderWins(t *testing.T) {
	// "security" appears in the Technology keyword set; Technology is
	// scanned before later categories.
	if got := Categorize("security notes 2024"); got != models.CategoryTechnology {
		t.Errorf("got %q, want Technology", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, World! x2")
	want := []string{"hello", "world", "x2"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
