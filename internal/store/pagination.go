package store

// Pagination is applied in memory after sorting. The catalog and the
// transaction log are small enough that full scans are cheaper than
// maintaining sorted index structures in Badger.

const (
	// DefaultPageLimit is used when a request does not specify a limit.
	DefaultPageLimit = 50
	// MaxPageLimit caps the page size a caller can request.
	MaxPageLimit = 200
)

// PageParams selects a window of a sorted result set.
type PageParams struct {
	Offset int
	Limit  int
}

// Normalize clamps the params into a sane range.
func (p PageParams) Normalize() PageParams {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Paginate returns the requested window of items plus the total count
// before windowing.
func Paginate[T any](items []T, p PageParams) ([]T, int) {
	p = p.Normalize()
	total := len(items)

	if p.Offset >= total {
		return []T{}, total
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	return items[p.Offset:end], total
}
