// Package orm carries small GORM query helpers shared by repositories:
// pagination scopes and the Pagination metadata attached to list responses.
package orm

import "gorm.io/gorm"

// Pagination describes one page of a larger result set.
type Pagination struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"perPage"`
	Total    int64 `json:"total"`
	LastPage int   `json:"lastPage"`
}

// NewPagination normalizes page/perPage and derives LastPage from total.
func NewPagination(page, perPage int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, LastPage: last}
}

// Paginate is a gorm scope applying LIMIT/OFFSET for the given page.
//
//	db.Scopes(orm.Paginate(page, perPage)).Find(&users)
func Paginate(page, perPage int) func(*gorm.DB) *gorm.DB {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * perPage).Limit(perPage)
	}
}
