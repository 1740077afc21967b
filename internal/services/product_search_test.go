// internal/services/product_search_test.go
package services

import (
	"context"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductSearchParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(t *testing.T, p *ProductSearchParams)
	}{
		{
			name:  "defaults",
			query: "",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Equal(t, 12, p.Limit)
				assert.Equal(t, 1, p.Page)
				assert.Equal(t, ProductSearchFields, p.Fields)
				assert.Nil(t, p.CategoryIDs)
				assert.Nil(t, p.PriceMin)
				assert.Nil(t, p.PriceMax)
				assert.Empty(t, p.Options)
			},
		},
		{
			name:  "unlimited",
			query: "limit=-1&page=3",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.True(t, p.Unlimited())
				assert.Equal(t, 0, p.Offset())
			},
		},
		{name: "zero page", query: "page=0", wantErr: true},
		{name: "zero limit", query: "limit=0", wantErr: true},
		{name: "limit -2", query: "limit=-2", wantErr: true},
		{name: "non numeric limit", query: "limit=ten", wantErr: true},
		{
			name:  "fields keep id and drop unknown",
			query: "fields=name,bogus,price",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Equal(t, []string{"id", "name", "price"}, p.Fields)
			},
		},
		{
			name:  "category ids drop junk and duplicates",
			query: "category_ids=3,x,1,3,,0",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Equal(t, []uint{3, 1}, p.CategoryIDs)
			},
		},
		{
			name:  "category ids all junk",
			query: "category_ids=a,b",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Nil(t, p.CategoryIDs)
			},
		},
		{
			name:  "price range both",
			query: "price_range=10-20.5",
			check: func(t *testing.T, p *ProductSearchParams) {
				require.NotNil(t, p.PriceMin)
				require.NotNil(t, p.PriceMax)
				assert.Equal(t, 10.0, *p.PriceMin)
				assert.Equal(t, 20.5, *p.PriceMax)
			},
		},
		{
			name:  "price range min only",
			query: "price_range=10-",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Equal(t, 10.0, *p.PriceMin)
				assert.Nil(t, p.PriceMax)
			},
		},
		{
			name:  "price range bare number is a minimum",
			query: "price_range=7",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Equal(t, 7.0, *p.PriceMin)
				assert.Nil(t, p.PriceMax)
			},
		},
		{
			name:  "price range max only",
			query: "price_range=-30",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Nil(t, p.PriceMin)
				assert.Equal(t, 30.0, *p.PriceMax)
			},
		},
		{name: "price range inverted", query: "price_range=30-10", wantErr: true},
		{name: "price range dash only", query: "price_range=-", wantErr: true},
		{
			name:  "price range junk maximum is dropped",
			query: "price_range=100-abc",
			check: func(t *testing.T, p *ProductSearchParams) {
				require.NotNil(t, p.PriceMin)
				assert.Equal(t, 100.0, *p.PriceMin)
				assert.Nil(t, p.PriceMax)
			},
		},
		{
			name:  "price range junk minimum is dropped",
			query: "price_range=abc-10",
			check: func(t *testing.T, p *ProductSearchParams) {
				assert.Nil(t, p.PriceMin)
				require.NotNil(t, p.PriceMax)
				assert.Equal(t, 10.0, *p.PriceMax)
			},
		},
		{name: "price range junk on both sides", query: "price_range=abc-def", wantErr: true},
		{name: "price range junk minimum only", query: "price_range=abc-", wantErr: true},
		{name: "price range single junk piece", query: "price_range=abc", wantErr: true},
		{
			name:  "option filters sorted and merged",
			query: "option[9]=red&option[2]=S,M&option[2]=L&option[x]=ignored&option[09]=blue",
			check: func(t *testing.T, p *ProductSearchParams) {
				require.Len(t, p.Options, 2)
				assert.Equal(t, uint(2), p.Options[0].OptionID)
				assert.ElementsMatch(t, []string{"S", "M", "L"}, p.Options[0].Values)
				assert.Equal(t, uint(9), p.Options[1].OptionID)
				assert.ElementsMatch(t, []string{"red", "blue"}, p.Options[1].Values)
			},
		},
		{name: "option filter without values", query: "option[4]=,%20", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			params, err := ParseProductSearchParams(q)
			if tt.wantErr {
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, params)
		})
	}
}

func TestContainsCondition(t *testing.T) {
	cond, args := containsCondition("postgres", "50%_off", "a", "b")
	assert.Equal(t, "(a LIKE ? OR b LIKE ?)", cond)
	assert.Equal(t, []interface{}{`%50\%\_off%`, `%50\%\_off%`}, args)

	cond, args = containsCondition("mysql", "x", "a")
	assert.Equal(t, "(a LIKE BINARY ?)", cond)
	assert.Equal(t, []interface{}{"%x%"}, args)

	cond, args = containsCondition("sqlite", "50%", "a")
	assert.Equal(t, "(instr(a, ?) > 0)", cond)
	assert.Equal(t, []interface{}{"50%"}, args)
}

type searchFixture struct {
	svc    *ProductService
	shirts uint
	shoes  uint
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	db := newTestDB(t)
	svc := NewProductService(db)
	ctx := context.Background()

	shirts := seedCategory(t, db, "Shirts", "shirts")
	shoes := seedCategory(t, db, "Shoes", "shoes")

	create := func(req CreateProductRequest) *ProductDetail {
		p, err := svc.CreateProduct(ctx, &req)
		require.NoError(t, err)
		return p
	}

	create(CreateProductRequest{
		Name: "Blue Shirt", Slug: "blue-shirt", Price: ptr(50.0), Description: "Cotton shirt",
		CategoryIDs: []uint{shirts.ID, shoes.ID},
		Options: []OptionInput{{Title: "Size", Type: "text", Values: FlexStrings{"S", "M"}}},
	})
	create(CreateProductRequest{
		Name: "Another Shirt", Slug: "another-shirt", Price: ptr(20.0),
		CategoryIDs: []uint{shirts.ID},
		Options: []OptionInput{{Title: "Size", Type: "text", Values: FlexStrings{"L"}}},
	})
	create(CreateProductRequest{
		Name: "Hidden Shirt", Slug: "hidden-shirt", Price: ptr(30.0), Enabled: ptr(false),
		CategoryIDs: []uint{shirts.ID},
	})
	create(CreateProductRequest{
		Name: "Runner", Slug: "runner", Price: ptr(120.0), Description: "100% shirt-free",
		CategoryIDs: []uint{shoes.ID},
		Options: []OptionInput{
			{Title: "Size", Type: "text", Values: FlexStrings{"M", "L"}},
			{Title: "Color", Type: "color", Values: FlexStrings{"red"}},
		},
	})

	return &searchFixture{svc: svc, shirts: shirts.ID, shoes: shoes.ID}
}

func (f *searchFixture) search(t *testing.T, query string) ([]ProductSummary, int64) {
	t.Helper()
	q, err := url.ParseQuery(query)
	require.NoError(t, err)
	params, err := ParseProductSearchParams(q)
	require.NoError(t, err)

	result, err := f.svc.SearchProducts(context.Background(), params)
	require.NoError(t, err)
	data, ok := result.Data.([]ProductSummary)
	require.True(t, ok)
	return data, result.Total
}

func names(items []ProductSummary) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item["name"].(string))
	}
	return out
}

func TestSearchProducts(t *testing.T) {
	f := newSearchFixture(t)

	t.Run("only enabled products in name order", func(t *testing.T) {
		data, total := f.search(t, "")
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"Another Shirt", "Blue Shirt", "Runner"}, names(data))
	})

	t.Run("match is case sensitive across name and description", func(t *testing.T) {
		data, total := f.search(t, "match=Shirt")
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"Another Shirt", "Blue Shirt"}, names(data))

		data, _ = f.search(t, "match=shirt")
		assert.Equal(t, []string{"Blue Shirt", "Runner"}, names(data))

		data, _ = f.search(t, "match=100%25")
		assert.Equal(t, []string{"Runner"}, names(data))
	})

	t.Run("category filter is deduplicated", func(t *testing.T) {
		data, total := f.search(t, "category_ids=1,2")
		assert.Equal(t, int64(3), total)
		assert.Len(t, data, 3)
	})

	t.Run("category filter with no valid ids is ignored", func(t *testing.T) {
		data, total := f.search(t, "category_ids=x")
		assert.Equal(t, int64(3), total)
		assert.Len(t, data, 3)

		_, total = f.search(t, "category_ids=")
		assert.Equal(t, int64(3), total)
	})

	t.Run("price range", func(t *testing.T) {
		data, _ := f.search(t, "price_range=20-50")
		assert.Equal(t, []string{"Another Shirt", "Blue Shirt"}, names(data))

		data, _ = f.search(t, "price_range=100")
		assert.Equal(t, []string{"Runner"}, names(data))

		data, _ = f.search(t, "price_range=100-abc")
		assert.Equal(t, []string{"Runner"}, names(data))
	})

	t.Run("price range bounds are inclusive", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewProductService(db)
		for _, p := range []struct {
			slug  string
			price float64
		}{{"cheap", 99.99}, {"middle", 150}, {"edge", 200}, {"dear", 200.01}} {
			_, err := svc.CreateProduct(context.Background(), &CreateProductRequest{Name: p.slug, Slug: p.slug, Price: ptr(p.price)})
			require.NoError(t, err)
		}

		q, err := url.ParseQuery("price_range=100-200")
		require.NoError(t, err)
		params, err := ParseProductSearchParams(q)
		require.NoError(t, err)
		result, err := svc.SearchProducts(context.Background(), params)
		require.NoError(t, err)

		assert.Equal(t, int64(2), result.Total)
		assert.Equal(t, []string{"edge", "middle"}, names(result.Data.([]ProductSummary)))
	})

	t.Run("option filter", func(t *testing.T) {
		all, _ := f.search(t, "match=Blue")
		require.Len(t, all, 1)
		options := all[0]["options"].([]OptionView)
		require.Len(t, options, 1)
		optionID := options[0].ID

		q := url.Values{}
		q.Set("option["+itoa(optionID)+"]", "M,XL")
		data, total := f.search(t, q.Encode())
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"Blue Shirt"}, names(data))

		q.Set("option["+itoa(optionID)+"]", "L")
		data, total = f.search(t, q.Encode())
		assert.Equal(t, int64(0), total)
		assert.Empty(t, data)
	})

	t.Run("option filters are ANDed", func(t *testing.T) {
		all, _ := f.search(t, "match=Runner")
		require.Len(t, all, 1)
		options := all[0]["options"].([]OptionView)
		require.Len(t, options, 2)
		size, color := options[0].ID, options[1].ID

		q := url.Values{}
		q.Set("option["+itoa(size)+"]", "M")
		q.Set("option["+itoa(color)+"]", "blue")
		_, total := f.search(t, q.Encode())
		assert.Equal(t, int64(0), total)

		q.Set("option["+itoa(color)+"]", "red")
		data, total := f.search(t, q.Encode())
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"Runner"}, names(data))
	})

	t.Run("pagination is stable", func(t *testing.T) {
		first, total := f.search(t, "limit=2&page=1")
		second, _ := f.search(t, "limit=2&page=2")
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"Another Shirt", "Blue Shirt"}, names(first))
		assert.Equal(t, []string{"Runner"}, names(second))

		all, _ := f.search(t, "limit=-1&page=5")
		assert.Len(t, all, 3)
	})

	t.Run("fields narrow the scalar columns", func(t *testing.T) {
		data, _ := f.search(t, "fields=name&match=Runner")
		require.Len(t, data, 1)
		item := data[0]
		assert.Contains(t, item, "id")
		assert.Contains(t, item, "name")
		assert.NotContains(t, item, "price")
		assert.Equal(t, []uint{f.shoes}, item["category_ids"])
		assert.Equal(t, []ImageView{}, item["images"])
	})
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
