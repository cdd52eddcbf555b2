// Package search provides full-text catalog search backed by Bleve.
package search

import (
	"github.com/bookhaven/bookhaven-server/internal/domain"
)

// BookDocument is the flattened, index-ready projection of a catalog book.
type BookDocument struct {
	ID        string
	Title     string
	Author    string
	Genre     string
	Price     int64
	InStock   bool
	CreatedAt int64 // unix seconds, for recency sorting
}

// NewBookDocument projects a domain book into its index document.
func NewBookDocument(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Genre:     book.Genre,
		Price:     book.Price,
		InStock:   book.InStock(),
		CreatedAt: book.CreatedAt.Unix(),
	}
}

// ToMap converts the document to a map so field names match the index
// mapping exactly (Bleve lowercases nothing on its own).
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"author":     d.Author,
		"genre":      d.Genre,
		"price":      d.Price,
		"in_stock":   d.InStock,
		"created_at": d.CreatedAt,
	}
}
