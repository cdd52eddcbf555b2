package domain

import (
	"bytes"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Legacy record normalization.
//
// The storefront this server replaces kept the same logical transaction in
// up to three browser local-storage keys (orders, userOrders_<email>,
// userBorrows_<email>) with drifting shapes: numeric vs string IDs,
// "total" vs "totalPrice", localized status strings. Exports of those keys
// can be dropped in the import inbox; this file unifies every observed
// shape into the Transaction schema. Records are deduplicated by ID at
// import time, so the same export can be imported repeatedly.

// CatalogBookID renders the legacy numeric catalog ID as a stable book ID.
// The seed catalog uses the same scheme, so imported legacy records line up
// with seeded books.
func CatalogBookID(n int64) string {
	return fmt.Sprintf("book-%d", n)
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// flexMoney decodes a JSON number or numeric string into whole roubles.
type flexMoney int64

func (f *flexMoney) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	// Some exports carry fractional totals; round toward zero.
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse money value %q: %w", s, err)
	}
	*f = flexMoney(int64(val))
	return nil
}

// legacyBook is a book snapshot as the old storefront embedded it.
type legacyBook struct {
	ID       flexString `json:"id"`
	Title    string     `json:"title"`
	Author   string     `json:"author"`
	Genre    string     `json:"genre"`
	Image    string     `json:"image"`
	Price    flexMoney  `json:"price"`
	Quantity int        `json:"quantity"`
}

func (b *legacyBook) snapshot() BookSnapshot {
	bookID := string(b.ID)
	// Numeric catalog IDs get the stable book-N form.
	if n, err := strconv.ParseInt(bookID, 10, 64); err == nil {
		bookID = CatalogBookID(n)
	}
	return BookSnapshot{
		BookID:   bookID,
		Title:    b.Title,
		Author:   b.Author,
		Genre:    b.Genre,
		CoverURL: b.Image,
		Price:    int64(b.Price),
	}
}

// legacyRecord covers both order and borrow export shapes. A record with a
// "book" field is a borrow; one with "items" is an order.
type legacyRecord struct {
	ID         flexString   `json:"id"`
	Items      []legacyBook `json:"items"`
	Book       *legacyBook  `json:"book"`
	Customer   Customer     `json:"customer"`
	Total      flexMoney    `json:"total"`
	TotalPrice flexMoney    `json:"totalPrice"`
	Date       string       `json:"date"`
	ReturnDate string       `json:"returnDate"`
	Status     string       `json:"status"`
	UserEmail  string       `json:"userEmail"`
}

// ParseLegacyRecords decodes a JSON array of legacy order or borrow records
// into unified Transactions. Records the parser cannot make sense of are
// returned as errors joined per index so one bad record doesn't sink the
// whole file.
func ParseLegacyRecords(data []byte) ([]*Transaction, error) {
	return parseLegacyRecords(data, "")
}

// parseLegacyRecords decodes records, taking owner as a last-resort user
// email for records that carry none (per-user export keys name the owner
// in the key, not in the records).
func parseLegacyRecords(data []byte, owner string) ([]*Transaction, error) {
	var records []legacyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode legacy export: %w", err)
	}

	txns := make([]*Transaction, 0, len(records))
	for i, rec := range records {
		txn, err := rec.normalize(owner)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// ParseLegacyExport decodes a full legacy export. Two shapes are accepted:
// a bare JSON array of records, or a local-storage dump object whose
// "orders", "userOrders_<email>" and "userBorrows_<email>" keys each hold a
// record array, either inline or as a JSON-encoded string (the way
// localStorage stores them). Unrelated keys are ignored.
func ParseLegacyExport(data []byte) ([]*Transaction, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return ParseLegacyRecords(trimmed)
	}

	var dump map[string]jsontext.Value
	if err := json.Unmarshal(trimmed, &dump); err != nil {
		return nil, fmt.Errorf("decode legacy export: %w", err)
	}

	var txns []*Transaction
	for _, key := range slices.Sorted(maps.Keys(dump)) {
		raw := dump[key]
		if key != "orders" &&
			!strings.HasPrefix(key, "userOrders_") &&
			!strings.HasPrefix(key, "userBorrows_") {
			continue
		}

		value := bytes.TrimSpace(raw)
		// localStorage values are strings holding JSON.
		if len(value) > 0 && value[0] == '"' {
			var inner string
			if err := json.Unmarshal(value, &inner); err != nil {
				return nil, fmt.Errorf("key %s: %w", key, err)
			}
			value = []byte(inner)
		}

		// Per-user keys carry the owner in the key, not in the records.
		owner := ""
		if idx := strings.IndexByte(key, '_'); idx >= 0 {
			owner = key[idx+1:]
		}

		parsed, err := parseLegacyRecords(value, owner)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		txns = append(txns, parsed...)
	}

	return dedupeByID(txns), nil
}

// dedupeByID drops later records with an already-seen ID, preserving order.
// The same transaction routinely appears under both the global and the
// per-user key of an export.
func dedupeByID(txns []*Transaction) []*Transaction {
	seen := make(map[string]bool, len(txns))
	out := txns[:0]
	for _, txn := range txns {
		if seen[txn.ID] {
			continue
		}
		seen[txn.ID] = true
		out = append(out, txn)
	}
	return out
}

func (r *legacyRecord) normalize(owner string) (*Transaction, error) {
	if string(r.ID) == "" {
		return nil, fmt.Errorf("missing id")
	}

	createdAt := parseLegacyTime(r.Date)

	userEmail := strings.ToLower(strings.TrimSpace(r.UserEmail))
	if userEmail == "" {
		userEmail = strings.ToLower(strings.TrimSpace(r.Customer.Email))
	}
	if userEmail == "" {
		userEmail = strings.ToLower(strings.TrimSpace(owner))
	}
	if userEmail == "" {
		return nil, fmt.Errorf("record %s has no user email", string(r.ID))
	}

	txn := &Transaction{
		Meta: Meta{
			ID:        "txn-legacy-" + string(r.ID),
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		UserEmail: userEmail,
		Customer:  r.Customer,
	}
	txn.Customer.Email = userEmail

	switch {
	case r.Book != nil:
		// Borrow export: single book, quantity 1, no charge.
		txn.Kind = KindBorrow
		txn.Items = []TransactionItem{{Book: r.Book.snapshot(), Quantity: 1}}
		txn.Status = normalizeBorrowStatus(r.Status)
		if r.ReturnDate != "" {
			due := parseLegacyTime(r.ReturnDate)
			txn.DueDate = &due
		}

	case len(r.Items) > 0:
		txn.Kind = KindPurchase
		for _, item := range r.Items {
			qty := item.Quantity
			if qty <= 0 {
				qty = 1
			}
			txn.Items = append(txn.Items, TransactionItem{Book: item.snapshot(), Quantity: qty})
		}
		// Exports disagree on the total field name; fall back to recomputing.
		txn.Total = int64(r.Total)
		if txn.Total == 0 {
			txn.Total = int64(r.TotalPrice)
		}
		if txn.Total == 0 {
			for _, item := range txn.Items {
				txn.Total += item.Book.Price * int64(item.Quantity)
			}
		}
		txn.Status = normalizePurchaseStatus(r.Status)

	default:
		return nil, fmt.Errorf("record %s has neither items nor a book", string(r.ID))
	}

	return txn, nil
}

// normalizePurchaseStatus maps legacy order statuses onto the lifecycle.
func normalizePurchaseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "done":
		return StatusCompleted
	default:
		return StatusPending
	}
}

// normalizeBorrowStatus maps legacy borrow statuses, including the
// localized ones the old storefront wrote, onto the lifecycle.
func normalizeBorrowStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "returned", "возвращено":
		return StatusReturned
	default:
		// "Взято в чтение", "issued", "borrowed", and anything unrecognized.
		return StatusIssued
	}
}

// parseLegacyTime parses exported timestamps, which are usually RFC 3339
// with milliseconds but occasionally date-only. Unparseable values fall
// back to the zero time, which sorts legacy records before live ones.
func parseLegacyTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
