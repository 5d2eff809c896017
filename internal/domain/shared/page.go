package shared

// DefaultPageSize applies when a list call asks for no size
const DefaultPageSize = 20

// Filter is the paging, ordering and search window of a list query.
// OrderBy is checked against a per-repository whitelist before use.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// Window returns the row offset and limit of the page. ok is false when
// the filter does not page at all.
func (f Filter) Window() (offset, limit int, ok bool) {
	if f.Page <= 0 || f.PageSize <= 0 {
		return 0, 0, false
	}
	return (f.Page - 1) * f.PageSize, f.PageSize, true
}

// PageCount is the number of pages needed for total rows
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// Paginated is one page of a list result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps items as page of a total row count
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: PageCount(total, pageSize),
	}
}
