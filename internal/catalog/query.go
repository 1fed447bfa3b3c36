package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/storefront/internal/domain/product"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the number of product cards shown per page
const DefaultPageSize = 12

type PriceBand string

const (
	BandAll     PriceBand = "all"
	BandUnder50 PriceBand = "under-50"
	Band50To150 PriceBand = "50-150"
	BandOver150 PriceBand = "over-150"
)

type SortKey string

const (
	SortDefault   SortKey = "default"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

var (
	ErrUnknownPriceBand = errors.New("unknown price band")
	ErrUnknownSortKey   = errors.New("unknown sort key")

	fifty           = decimal.NewFromInt(50)
	oneHundredFifty = decimal.NewFromInt(150)
)

// ParsePriceBand maps a query value to a band; empty means all
func ParsePriceBand(s string) (PriceBand, error) {
	switch b := PriceBand(strings.TrimSpace(s)); b {
	case "":
		return BandAll, nil
	case BandAll, BandUnder50, Band50To150, BandOver150:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPriceBand, s)
	}
}

// ParseSortKey maps a query value to a sort key; empty means default
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortDefault, nil
	case SortDefault, SortPriceLow, SortPriceHigh, SortRating:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

// Contains reports whether price falls inside the band
func (b PriceBand) Contains(price decimal.Decimal) bool {
	switch b {
	case BandUnder50:
		return price.LessThan(fifty)
	case Band50To150:
		return price.GreaterThanOrEqual(fifty) && price.LessThanOrEqual(oneHundredFifty)
	case BandOver150:
		return price.GreaterThan(oneHundredFifty)
	default:
		return true
	}
}

func FilterByCategory(products []product.Product, category product.Category) []product.Product {
	return filter(products, func(p product.Product) bool { return p.Category == category })
}

func FilterByPriceBand(products []product.Product, band PriceBand) []product.Product {
	return filter(products, func(p product.Product) bool { return band.Contains(p.Price) })
}

func filter(products []product.Product, keep func(product.Product) bool) []product.Product {
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a sorted copy; the input slice is left untouched.
// Names compare with English collation so the order matches a browser's localeCompare.
func Sort(products []product.Product, key SortKey) []product.Product {
	out := make([]product.Product, len(products))
	copy(out, products)

	// Collators keep internal buffers, so each call gets its own.
	col := collate.New(language.English)
	byName := func(i, j int) bool { return col.CompareString(out[i].Name, out[j].Name) < 0 }

	switch key {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := out[i].RatingOrZero(), out[j].RatingOrZero()
			if ri != rj {
				return ri > rj
			}
			return byName(i, j)
		})
	default:
		sort.SliceStable(out, byName)
	}
	return out
}

// Paginate returns the 1-indexed page [(page-1)*size, page*size). Anything out of range is empty.
func Paginate(products []product.Product, page, size int) []product.Product {
	if page < 1 || size < 1 {
		return []product.Product{}
	}
	// compare page counts before multiplying so a huge page cannot wrap start negative
	if len(products) == 0 || page-1 > (len(products)-1)/size {
		return []product.Product{}
	}
	start := (page - 1) * size
	end := min(start+size, len(products))
	out := make([]product.Product, end-start)
	copy(out, products[start:end])
	return out
}

// Matches reports whether query occurs, ignoring case, in the name, description, category
// or any size or color of p. A blank query matches nothing.
func Matches(p product.Product, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	if contains(p.Name) || contains(p.Description) || contains(string(p.Category)) {
		return true
	}
	for _, c := range p.Colors {
		if contains(c) {
			return true
		}
	}
	for _, s := range p.Sizes {
		if contains(s) {
			return true
		}
	}
	return false
}

// Page is one paginated slice of a filtered and sorted result
type Page struct {
	Items      []product.Product `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func newPage(sorted []product.Product, page, size int) Page {
	totalPages := 0
	if size > 0 {
		totalPages = len(sorted) / size
		if len(sorted)%size != 0 {
			totalPages++
		}
	}
	return Page{
		Items:      Paginate(sorted, page, size),
		Total:      len(sorted),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}

// BrowseQuery selects a category listing. An empty Category lists the whole catalog.
type BrowseQuery struct {
	Category product.Category
	Band     PriceBand
	Sort     SortKey
	Page     int
	PageSize int
}

// Browse applies category, price band, sort and pagination in that order
func Browse(products []product.Product, q BrowseQuery) Page {
	list := products
	if q.Category != "" {
		list = FilterByCategory(list, q.Category)
	}
	list = FilterByPriceBand(list, q.Band)
	return newPage(Sort(list, q.Sort), q.Page, q.PageSize)
}

type SearchQuery struct {
	Text     string
	Band     PriceBand
	Sort     SortKey
	Page     int
	PageSize int
}

// Group is the products of one category label within a page
type Group struct {
	Label    string            `json:"label"`
	Products []product.Product `json:"products"`
}

type SearchResult struct {
	Query  string  `json:"query"`
	Page   Page    `json:"page"`
	Groups []Group `json:"groups"`
}

// Search applies the text match, price band, sort and pagination, then groups the page by category
func Search(products []product.Product, q SearchQuery) SearchResult {
	text := strings.TrimSpace(q.Text)
	matched := filter(products, func(p product.Product) bool { return Matches(p, text) })
	page := newPage(Sort(FilterByPriceBand(matched, q.Band), q.Sort), q.Page, q.PageSize)
	return SearchResult{
		Query:  text,
		Page:   page,
		Groups: GroupByCategory(page.Items),
	}
}

// GroupByCategory partitions products by category label in order of first appearance
func GroupByCategory(products []product.Product) []Group {
	groups := []Group{}
	index := make(map[string]int)
	for _, p := range products {
		label := p.Category.Label()
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	return groups
}
