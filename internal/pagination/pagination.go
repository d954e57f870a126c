package pagination

import (
	"gorm.io/gorm"
)

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"perPage" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in default values when page or perPage are not provided.
func (p *PageRequest) Defaults(perPage int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = perPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageResponse wraps a paginated list of items with metadata.
// LastPage is nil when everything fits on one page and NextPage is nil on the last page.
type PageResponse[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"perPage"`
	CurrentPage int   `json:"currentPage"`
	From        int   `json:"from"`
	To          int   `json:"to"`
	LastPage    *int  `json:"lastPage"`
	NextPage    *int  `json:"nextPage"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, perPage int, total int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	resp := PageResponse[T]{
		Data:        data,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
	}
	if perPage <= 0 {
		return resp
	}

	if total > 0 {
		resp.From = (page-1)*perPage + 1
		resp.To = min(page*perPage, int(total))
		if int64(resp.From) > total {
			resp.From, resp.To = 0, 0
		}
	}

	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last > 1 {
		resp.LastPage = &last
	}
	if page < last {
		next := page + 1
		resp.NextPage = &next
	}
	return resp
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PerPage)
	}
}
