package store

import "strings"

// Key layout. Every record class gets its own prefix so prefix scans stay
// cheap; index keys carry the owning prefix plus "idx:" so entity scans can
// skip them.
//
//	book:<id>                       -> Book
//	txn:<id>                        -> Transaction
//	txn:idx:user:<email>:<id>       -> transaction ID (per-user history index)
//	cart:<email>                    -> Cart
//	user:<id>                       -> User
//	user:idx:email:<email>          -> user ID
const (
	bookPrefix       = "book:"
	txnPrefix        = "txn:"
	txnUserIdxPrefix = "txn:idx:user:"
	cartPrefix       = "cart:"
)

func bookKey(id string) []byte {
	return []byte(bookPrefix + id)
}

func txnKey(id string) []byte {
	return []byte(txnPrefix + id)
}

// txnUserIdxKey builds the per-user history index entry for a transaction.
// The email segment is normalized so lookups are case-insensitive.
func txnUserIdxKey(email, txnID string) []byte {
	return []byte(txnUserIdxPrefix + normalizeEmail(email) + ":" + txnID)
}

// txnUserScanPrefix is the prefix covering all history entries for a user.
func txnUserScanPrefix(email string) []byte {
	return []byte(txnUserIdxPrefix + normalizeEmail(email) + ":")
}

func cartKey(email string) []byte {
	return []byte(cartPrefix + normalizeEmail(email))
}

// normalizeEmail lowercases and trims an email address. Used for every
// email-derived key so "Alice@Example.com" and "alice@example.com" resolve
// to the same records.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
