package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/example/storefront/internal/domain/product"
)

//go:embed products.json
var defaultCatalog []byte

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateID     = errors.New("duplicate product id")
)

// Catalog is the read-only product list loaded at start-up
type Catalog struct {
	products []product.Product
	byID     map[string]int
}

// Default returns the built-in twelve-product catalog
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadFile reads a JSON array of products from path
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a JSON array of products
func Load(r io.Reader) (*Catalog, error) {
	var products []product.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(products)
}

func New(products []product.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]product.Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.products[i] = p.Clone()
	}
	for i, p := range c.products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// All returns a copy of every product in catalog order
func (c *Catalog) All() []product.Product {
	out := make([]product.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

func (c *Catalog) Get(id string) (product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return product.Product{}, ErrProductNotFound
	}
	return c.products[i].Clone(), nil
}

func (c *Catalog) Len() int {
	return len(c.products)
}
