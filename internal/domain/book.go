package domain

// Book represents a title in the store catalog.
// Prices are whole roubles; fractional prices don't occur in the catalog.
type Book struct {
	Meta
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
}

// InStock reports whether at least one copy is available.
func (b *Book) InStock() bool {
	return b.Stock > 0
}

// Snapshot freezes the book's display fields and price for embedding in
// cart lines and transactions. Later catalog edits don't touch snapshots,
// which is what gives transactions price-at-purchase semantics.
func (b *Book) Snapshot() BookSnapshot {
	return BookSnapshot{
		BookID:   b.ID,
		Title:    b.Title,
		Author:   b.Author,
		Genre:    b.Genre,
		CoverURL: b.CoverURL,
		Price:    b.Price,
	}
}

// BookSnapshot is an immutable copy of a book's sale-relevant fields.
type BookSnapshot struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
	Price    int64  `json:"price"`
}
