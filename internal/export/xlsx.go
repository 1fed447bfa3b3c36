package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

// ContentType is the MIME type of the workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Products"

var headers = []string{
	"ID", "Name", "Category", "Price", "Sizes", "Colors",
	"InStock", "Rating", "Reviews", "Image", "Description",
}

var ErrEmptyWorkbook = errors.New("workbook is empty or missing header row")

// WriteCatalog writes products to a single-sheet workbook, one row per product after a header row.
// Prices are stored as text so the decimal value survives a round trip.
func WriteCatalog(w io.Writer, products []product.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(string(p.Category))
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetString(strings.Join(p.Sizes, ","))
		row.AddCell().SetString(strings.Join(p.Colors, ","))
		row.AddCell().SetString(strconv.FormatBool(p.InStock))
		if p.Rating != nil {
			row.AddCell().SetString(strconv.FormatFloat(*p.Rating, 'f', -1, 64))
		} else {
			row.AddCell().SetString("")
		}
		if p.Reviews != nil {
			row.AddCell().SetString(strconv.Itoa(*p.Reviews))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(p.Image)
		row.AddCell().SetString(p.Description)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadCatalog parses a workbook written by WriteCatalog
func ReadCatalog(r io.ReaderAt, size int64) ([]product.Product, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if len(file.Sheets) == 0 || file.Sheets[0].MaxRow < 1 {
		return nil, ErrEmptyWorkbook
	}

	sheet := file.Sheets[0]
	products := make([]product.Product, 0, sheet.MaxRow-1)
	for i := 1; i < sheet.MaxRow; i++ {
		row := sheet.Rows[i]
		get := func(index int) string {
			if index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}
		if get(0) == "" {
			continue
		}

		p, err := parseRow(get)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func parseRow(get func(int) string) (product.Product, error) {
	price, err := decimal.NewFromString(get(3))
	if err != nil {
		return product.Product{}, fmt.Errorf("price: %w", err)
	}
	category, err := product.ParseCategory(get(2))
	if err != nil {
		return product.Product{}, err
	}

	p := product.Product{
		ID:          get(0),
		Name:        get(1),
		Category:    category,
		Price:       price,
		Sizes:       splitList(get(4)),
		Colors:      splitList(get(5)),
		InStock:     get(6) == "true",
		Image:       get(9),
		Description: get(10),
	}
	if v := get(7); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return product.Product{}, fmt.Errorf("rating: %w", err)
		}
		p.Rating = &rating
	}
	if v := get(8); v != "" {
		reviews, err := strconv.Atoi(v)
		if err != nil {
			return product.Product{}, fmt.Errorf("reviews: %w", err)
		}
		p.Reviews = &reviews
	}
	return p, p.Validate()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
