// Package classify maps free-text labels and titles to canonical categories.
package classify

import (
	"strings"
	"unicode"

	"github.com/starford/ansuz/internal/models"
)

// keywords holds the domain vocabulary for each canonical category.
// Lookup scans categories in declaration order, so earlier categories win
// when a token appears in more than one set.
var keywords = map[models.Category][]string{
	models.CategoryTechnology: {
		"tech", "software", "programming", "code", "coding", "app", "application",
		"website", "internet", "computer", "digital", "online", "web", "development",
		"developer", "algorithm", "database", "server", "api", "framework", "library",
		"tool", "script", "system", "network", "docker", "kubernetes", "linux",
		"cloud", "git", "python", "golang", "javascript", "terminal", "cli",
		"frontend", "backend", "devops", "encryption", "security",
	},
	models.CategoryFinance: {
		"money", "financial", "finance", "invest", "investing", "investment",
		"stock", "stocks", "market", "crypto", "cryptocurrency", "currency",
		"bitcoin", "ethereum", "banking", "economy", "fund", "income", "expense",
		"budget", "accounting", "transaction", "payment", "wallet", "bank",
		"trading", "tax", "portfolio", "dividend", "savings", "loan", "mortgage",
	},
	models.CategoryPersonal: {
		"health", "life", "diary", "journal", "personal", "habit", "habits",
		"routine", "hobby", "fitness", "meditation", "reflection", "self",
		"emotion", "feeling", "mood", "relationship", "experience", "memory",
		"dream", "wellness", "sleep", "diet", "mindfulness", "gratitude",
	},
	models.CategoryProjects: {
		"project", "business", "work", "task", "initiative", "startup", "venture",
		"plan", "idea", "proposal", "collaboration", "team", "schedule", "timeline",
		"milestone", "deliverable", "objective", "goal", "product", "service",
		"sprint", "roadmap", "backlog",
	},
	models.CategoryKnowledge: {
		"learn", "learning", "study", "concept", "theory", "principle", "method",
		"process", "discipline", "subject", "topic", "field", "course", "education",
		"training", "skill", "lesson", "tutorial", "explanation", "definition",
		"book", "article", "paper", "research", "science", "history", "philosophy",
	},
	models.CategoryReference: {
		"reference", "guide", "manual", "documentation", "instruction",
		"instructions", "specification", "standard", "protocol", "formula",
		"recipe", "template", "checklist", "directory", "index", "catalog",
		"dictionary", "glossary", "cheatsheet", "resource", "link", "faq",
	},
}

var keywordSets = buildSets()

func buildSets() map[models.Category]map[string]struct{} {
	out := make(map[models.Category]map[string]struct{}, len(keywords))
	for cat, words := range keywords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		out[cat] = set
	}
	return out
}

// Categorize maps a label or title to a canonical category. It is total:
// every input, including the empty string, yields a category.
//
// Resolution order, first match wins:
//  1. exact case-insensitive match against a canonical name
//  2. case-insensitive substring match in either direction
//  3. keyword lookup over the tokenized input, categories scanned in
//     declaration order
//  4. Knowledge
func Categorize(label string) models.Category {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return models.CategoryKnowledge
	}

	for _, cat := range models.Categories() {
		if lower == strings.ToLower(string(cat)) {
			return cat
		}
	}

	for _, cat := range models.Categories() {
		name := strings.ToLower(string(cat))
		if strings.Contains(lower, name) || strings.Contains(name, lower) {
			return cat
		}
	}

	for _, tok := range Tokenize(lower) {
		for _, cat := range models.Categories() {
			if _, ok := keywordSets[cat][tok]; ok {
				return cat
			}
		}
	}

	return models.CategoryKnowledge
}

// Tokenize splits text into lowercased word tokens (letters and digits).
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
