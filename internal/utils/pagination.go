// internal/utils/pagination.go
package utils

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 12
	DefaultPage  = 1
	// NoLimit disables pagination entirely.
	NoLimit = -1
)

var ErrInvalidPagination = errors.New("invalid pagination parameters (limit, page)")

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type PaginationResult struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Limit int         `json:"limit"`
	Page  int         `json:"page"`
}

// GetPaginationParams reads limit and page from the query string. Both must be
// integers; page must be >= 1 and limit >= 1 unless it is NoLimit.
func GetPaginationParams(query url.Values) (PaginationParams, error) {
	params := PaginationParams{Page: DefaultPage, Limit: DefaultLimit}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return params, ErrInvalidPagination
		}
		params.Limit = limit
	}

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return params, ErrInvalidPagination
		}
		params.Page = page
	}

	if params.Page < 1 || (params.Limit != NoLimit && params.Limit < 1) {
		return params, ErrInvalidPagination
	}
	// the offset must fit in an int
	if params.Limit != NoLimit && params.Page-1 > math.MaxInt/params.Limit {
		return params, ErrInvalidPagination
	}

	return params, nil
}

func (p PaginationParams) Unlimited() bool {
	return p.Limit == NoLimit
}

func (p PaginationParams) Offset() int {
	if p.Unlimited() {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	if params.Unlimited() {
		return db
	}
	return db.Offset(params.Offset()).Limit(params.Limit)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	return PaginationResult{
		Data:  data,
		Total: total,
		Limit: params.Limit,
		Page:  params.Page,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
}

// SelectFields intersects a comma separated field list with allowed, keeping
// the order of allowed. "id" is always part of the result and unknown names
// are dropped. An empty request selects every allowed field.
func SelectFields(requested string, allowed []string) []string {
	if strings.TrimSpace(requested) == "" {
		out := make([]string, len(allowed))
		copy(out, allowed)
		return out
	}

	wanted := map[string]bool{"id": true}
	for _, field := range strings.Split(requested, ",") {
		wanted[strings.TrimSpace(field)] = true
	}

	out := make([]string, 0, len(allowed))
	for _, field := range allowed {
		if wanted[field] {
			out = append(out, field)
		}
	}
	return out
}
