package pagination

import (
	"strconv"

	"github.com/achievement-space/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page    int
	PerPage int
}

// FromContext extracts and validates page/per_page params from the request.
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.DefaultQuery("page", "1"), DefaultPage)
	perPage := parseIntOr(c.DefaultQuery("per_page", "10"), DefaultPerPage)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Query{Page: page, PerPage: perPage}
}

// Paginate applies limit/offset to a GORM query and returns the pagination
// metadata in the API's wire shape.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	offset := (q.Page - 1) * q.PerPage
	if err := db.Offset(offset).Limit(q.PerPage).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	lastPage := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return response.Pagination{
		TotalRow:    total,
		PerPage:     q.PerPage,
		CurrentPage: q.Page,
		LastPage:    lastPage,
		IsLastPage:  q.Page >= lastPage,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
