package product

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryShoes       Category = "shoes"
	CategoryClothes     Category = "clothes"
	CategoryBags        Category = "bags"
	CategoryAccessories Category = "accessories"
)

// Categories lists every category in catalog order
var Categories = []Category{CategoryShoes, CategoryClothes, CategoryBags, CategoryAccessories}

var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory accepts a category name in any letter case
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Label is the display name: the category with its first letter capitalised
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Product is an immutable catalog entry
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
	InStock     bool            `json:"inStock"`
	Rating      *float64        `json:"rating,omitempty"`
	Reviews     *int            `json:"reviews,omitempty"`
}

// Clone returns a copy of p that shares no slices or pointers with it
func (p Product) Clone() Product {
	out := p
	out.Sizes = slices.Clone(p.Sizes)
	out.Colors = slices.Clone(p.Colors)
	if p.Rating != nil {
		rating := *p.Rating
		out.Rating = &rating
	}
	if p.Reviews != nil {
		reviews := *p.Reviews
		out.Reviews = &reviews
	}
	return out
}

// RatingOrZero treats a missing rating as 0
func (p Product) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// HasSize reports whether size is one of the offered sizes
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// Validate checks the catalog invariants of a single entry
func (p Product) Validate() error {
	switch {
	case p.ID == "":
		return errors.New("product id is required")
	case p.Price.IsNegative():
		return fmt.Errorf("product %s: negative price", p.ID)
	case p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5):
		return fmt.Errorf("product %s: rating out of range", p.ID)
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return fmt.Errorf("product %s: %w", p.ID, err)
	}
	return nil
}
