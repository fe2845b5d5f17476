// Package models defines the domain types for Ansuz.
package models

import "time"

// Category is one of the six canonical vault categories. The set and its
// exact casing are a contract surface: the vault folder layout and every
// downstream consumer depend on it.
type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryFinance    Category = "Finance"
	CategoryPersonal   Category = "Personal"
	CategoryProjects   Category = "Projects"
	CategoryKnowledge  Category = "Knowledge"
	CategoryReference  Category = "Reference"
)

// Categories returns the canonical categories in declaration order.
// Classification scans them in this order, so the order is load-bearing.
func Categories() []Category {
	return []Category{
		CategoryTechnology,
		CategoryFinance,
		CategoryPersonal,
		CategoryProjects,
		CategoryKnowledge,
		CategoryReference,
	}
}

// Valid reports whether c is a canonical category with exact casing.
func (c Category) Valid() bool {
	switch c {
	case CategoryTechnology, CategoryFinance, CategoryPersonal,
		CategoryProjects, CategoryKnowledge, CategoryReference:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// NoteRecord is one note assembled from an LLM response.
type NoteRecord struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Category Category `json:"category"`
	Tags     []string `json:"tags"`
}

// NoteFile is a lightweight representation of a written vault file.
type NoteFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Suggestion is one related-note candidate returned by the similarity linker.
type Suggestion struct {
	Title string `json:"title"`
	Key   string `json:"key"`
}
