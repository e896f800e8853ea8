package domain

const MaxPageLimit = 100

type PageRequest struct {
	Page  int
	Limit int
}

// Normalize 把非法分页参数回落到默认值
func (p PageRequest) Normalize(defLimit int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Limit }

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(p PageRequest, total int64) Pagination {
	var pages int64
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// Unpack splits the page for the response envelope; items never encode as null.
func (p *Page[T]) Unpack() (any, Pagination) {
	if p.Items == nil {
		return []T{}, p.Pagination
	}
	return p.Items, p.Pagination
}
