package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/export"
	"github.com/spf13/cobra"
)

type listingFlags struct {
	price    string
	sort     string
	page     int
	pageSize int
}

func (f *listingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.price, "price", "all", "price band: all, under-50, 50-150, over-150")
	cmd.Flags().StringVar(&f.sort, "sort", "default", "sort: default, price-low, price-high, rating")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number (1-indexed)")
	cmd.Flags().IntVar(&f.pageSize, "page-size", catalog.DefaultPageSize, "products per page")
}

func (f *listingFlags) parse() (catalog.PriceBand, catalog.SortKey, error) {
	band, err := catalog.ParsePriceBand(f.price)
	if err != nil {
		return "", "", err
	}
	key, err := catalog.ParseSortKey(f.sort)
	if err != nil {
		return "", "", err
	}
	return band, key, nil
}

func newCatalogCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse, search and export the product catalog",
	}
	cmd.AddCommand(newCatalogListCmd(c), newCatalogSearchCmd(c), newCatalogExportCmd(c), newCatalogImportCmd())
	return cmd
}

func newCatalogListCmd(c *cli) *cobra.Command {
	var flags listingFlags
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a category page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.catalog()
			if err != nil {
				return err
			}
			band, key, err := flags.parse()
			if err != nil {
				return err
			}
			q := catalog.BrowseQuery{Band: band, Sort: key, Page: flags.page, PageSize: flags.pageSize}
			if category != "" {
				if q.Category, err = product.ParseCategory(category); err != nil {
					return err
				}
			}

			page := catalog.Browse(products.All(), q)
			printProducts(cmd.OutOrStdout(), page.Items)
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d products\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "shoes, clothes, bags or accessories (default: all)")
	flags.register(cmd)
	return cmd
}

func newCatalogSearchCmd(c *cli) *cobra.Command {
	var flags listingFlags

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search products and group the results by category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := c.catalog()
			if err != nil {
				return err
			}
			band, key, err := flags.parse()
			if err != nil {
				return err
			}

			result := catalog.Search(products.All(), catalog.SearchQuery{
				Text:     strings.Join(args, " "),
				Band:     band,
				Sort:     key,
				Page:     flags.page,
				PageSize: flags.pageSize,
			})
			out := cmd.OutOrStdout()
			if len(result.Groups) == 0 {
				fmt.Fprintf(out, "no products match %q\n", result.Query)
				return nil
			}
			for _, g := range result.Groups {
				fmt.Fprintf(out, "%s (%d)\n", g.Label, len(g.Products))
				printProducts(out, g.Products)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newCatalogExportCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.catalog()
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteCatalog(f, products.All()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products to %s\n", products.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "products.xlsx", "output file")
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert an xlsx workbook into a catalog JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			products, err := export.ReadCatalog(f, info.Size())
			if err != nil {
				return err
			}
			if _, err := catalog.New(products); err != nil {
				return err
			}

			data, err := json.MarshalIndent(products, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products to %s\n", len(products), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "products.xlsx", "workbook to read")
	cmd.Flags().StringVarP(&out, "out", "o", "products.json", "catalog file to write")
	return cmd
}

func printProducts(w io.Writer, products []product.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING\tSTOCK")
	for _, p := range products {
		stock := "in stock"
		if !p.InStock {
			stock = "sold out"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t$%s\t%.1f\t%s\n",
			p.ID, p.Name, p.Category.Label(), p.Price.StringFixed(2), p.RatingOrZero(), stock)
	}
	tw.Flush()
}
