// internal/services/product_search.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-backend/internal/models"
	"github.com/javajoker/catalog-backend/internal/utils"
)

// ProductSearchFields is the column allow-list for the fields parameter.
var ProductSearchFields = []string{
	"id", "enabled", "name", "slug", "stock", "description", "price", "price_with_discount",
}

var optionKeyPattern = regexp.MustCompile(`^option\[(\d+)\]$`)

// OptionFilter restricts results to products that have option OptionID with
// at least one of Values.
type OptionFilter struct {
	OptionID uint
	Values   []string
}

type ProductSearchParams struct {
	utils.PaginationParams
	Fields   []string
	Match    string
	PriceMin *float64
	PriceMax *float64
	Options  []OptionFilter

	// CategoryIDs is nil when no usable category id was supplied.
	CategoryIDs []uint
}

// ParseProductSearchParams turns the raw query string into search params.
// Every error it returns is a *ValidationError.
func ParseProductSearchParams(query url.Values) (*ProductSearchParams, error) {
	pagination, err := utils.GetPaginationParams(query)
	if err != nil {
		return nil, newValidationError("%s", err.Error())
	}

	params := &ProductSearchParams{
		PaginationParams: pagination,
		Fields:           utils.SelectFields(query.Get("fields"), ProductSearchFields),
		Match:            query.Get("match"),
	}

	if ids := parseIDList(query.Get("category_ids")); len(ids) > 0 {
		params.CategoryIDs = ids
	}

	if raw := strings.TrimSpace(query.Get("price_range")); raw != "" {
		params.PriceMin, params.PriceMax, err = parsePriceRange(raw)
		if err != nil {
			return nil, err
		}
	}

	params.Options, err = parseOptionFilters(query)
	if err != nil {
		return nil, err
	}

	return params, nil
}

// parseIDList keeps the positive integers of a comma list, deduplicated, in
// first-seen order.
func parseIDList(raw string) []uint {
	ids := make([]uint, 0)
	seen := make(map[uint]bool)
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 0)
		if err != nil || id == 0 || seen[uint(id)] {
			continue
		}
		seen[uint(id)] = true
		ids = append(ids, uint(id))
	}
	return ids
}

// parsePriceRange accepts min-max, min- and -max. A piece that is not a
// non-negative number is dropped as long as the other side parses.
func parsePriceRange(raw string) (*float64, *float64, error) {
	lo, hi, _ := strings.Cut(raw, "-")
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)

	min, max := parsePrice(lo), parsePrice(hi)
	if min == nil && max == nil {
		return nil, nil, newValidationError("price_range %q must be min-max, min- or -max", raw)
	}

	if min != nil && max != nil && *min > *max {
		return nil, nil, newValidationError("price_range minimum %v is greater than maximum %v", *min, *max)
	}
	return min, max, nil
}

func parsePrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

func parseOptionFilters(query url.Values) ([]OptionFilter, error) {
	byID := make(map[uint][]string)
	for key, rawValues := range query {
		m := optionKeyPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		id, err := strconv.ParseUint(m[1], 10, 0)
		if err != nil {
			continue
		}
		values := byID[uint(id)]
		for _, raw := range rawValues {
			for _, v := range strings.Split(raw, ",") {
				if v = strings.TrimSpace(v); v != "" {
					values = append(values, v)
				}
			}
		}
		byID[uint(id)] = values
	}

	filters := make([]OptionFilter, 0, len(byID))
	for id, values := range byID {
		if len(values) == 0 {
			return nil, newValidationError("option[%d] requires at least one value", id)
		}
		filters = append(filters, OptionFilter{OptionID: id, Values: dedupeStrings(values)})
	}
	sort.Slice(filters, func(i, j int) bool { return filters[i].OptionID < filters[j].OptionID })
	return filters, nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// SearchProducts runs the compiled search: a distinct count, then one page of
// ids in name order, then the selected columns and children for those ids.
func (s *ProductService) SearchProducts(ctx context.Context, params *ProductSearchParams) (*utils.PaginationResult, error) {
	summaries := make([]ProductSummary, 0)

	var total int64
	if err := s.filteredProducts(ctx, params).Select("COUNT(DISTINCT(products.id))").Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var ids []uint
	if total > 0 {
		page := s.filteredProducts(ctx, params).
			Group("products.id, products.name").
			Order("products.name ASC, products.id ASC")
		if err := utils.ApplyPagination(page, params.PaginationParams).Pluck("products.id", &ids).Error; err != nil {
			return nil, fmt.Errorf("failed to page products: %w", err)
		}
	}

	if len(ids) > 0 {
		var products []models.Product
		err := s.withChildren(s.db.WithContext(ctx)).
			Select(params.Fields).
			Where("id IN ?", ids).
			Find(&products).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load products: %w", err)
		}

		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		for _, id := range ids {
			if p, ok := byID[id]; ok {
				summaries = append(summaries, newProductSummary(p, params.Fields))
			}
		}
	}

	result := utils.CreatePaginationResult(summaries, total, params.PaginationParams)
	return &result, nil
}

// filteredProducts builds a fresh filtered query over enabled products. Each
// call returns an independent statement.
func (s *ProductService) filteredProducts(ctx context.Context, params *ProductSearchParams) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Product{}).Where("products.enabled = ?", true)

	if params.Match != "" {
		cond, args := containsCondition(s.db.Dialector.Name(), params.Match, "products.name", "products.description")
		q = q.Where(cond, args...)
	}

	if len(params.CategoryIDs) > 0 {
		q = q.Joins("JOIN product_categories ON product_categories.product_id = products.id AND product_categories.category_id IN ?", params.CategoryIDs)
	}

	if params.PriceMin != nil {
		q = q.Where("products.price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		q = q.Where("products.price <= ?", *params.PriceMax)
	}

	for i, f := range params.Options {
		opt := fmt.Sprintf("opt_%d", i)
		val := fmt.Sprintf("optv_%d", i)
		q = q.Joins(fmt.Sprintf("JOIN product_options AS %[1]s ON %[1]s.product_id = products.id AND %[1]s.id = ?", opt), f.OptionID).
			Joins(fmt.Sprintf("JOIN product_option_values AS %[1]s ON %[1]s.option_id = %[2]s.id AND %[1]s.value IN ?", val, opt), f.Values)
	}

	return q
}

// containsCondition renders a case-sensitive substring match ORed across
// columns for the given dialect.
func containsCondition(dialect, needle string, columns ...string) (string, []interface{}) {
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))

	for _, col := range columns {
		switch dialect {
		case "sqlite":
			parts = append(parts, fmt.Sprintf("instr(%s, ?) > 0", col))
			args = append(args, needle)
		case "mysql":
			parts = append(parts, fmt.Sprintf("%s LIKE BINARY ?", col))
			args = append(args, "%"+escapeLike(needle)+"%")
		default:
			parts = append(parts, fmt.Sprintf("%s LIKE ?", col))
			args = append(args, "%"+escapeLike(needle)+"%")
		}
	}

	return "(" + strings.Join(parts, " OR ") + ")", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *ProductService) withChildren(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
	return db.
		Preload("Images", byID).
		Preload("Options", byID).
		Preload("Options.Values", byID).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("category_id ASC") })
}

// GetProduct returns the full aggregate for id.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*ProductDetail, error) {
	var product models.Product
	if err := s.withChildren(s.db.WithContext(ctx)).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	detail := newProductDetail(product)
	return &detail, nil
}
