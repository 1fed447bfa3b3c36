package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/projection"
	"github.com/example/storefront/internal/query"
	"github.com/spf13/cobra"
)

func newCartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect carts rebuilt from the journal",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show OWNER",
		Short: "Rebuild and print the cart of a session or user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.journal(cmd.Context(), func(es store.EventStoreInterface) error {
				view, err := cart.NewService(es, c.logger()).Cart(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printCart(cmd.OutOrStdout(), view)
				return nil
			})
		},
	})
	return cmd
}

func newOrdersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "orders OWNER",
		Short: "List the orders placed by a session or user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.journal(cmd.Context(), func(es store.EventStoreInterface) error {
				readStore := store.NewReadStore()
				if _, err := projection.NewProjector(readStore, c.logger()).Replay(cmd.Context(), es); err != nil {
					return err
				}
				orders := query.NewHandler(nil, nil, readStore, 0).ListOrders(args[0])

				out := cmd.OutOrStdout()
				if len(orders) == 0 {
					fmt.Fprintf(out, "no orders for %s\n", args[0])
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ORDER\tPLACED\tITEMS\tTOTAL\tPAYMENT")
				for _, o := range orders {
					fmt.Fprintf(tw, "%s\t%s\t%d\t$%s\t%s\n",
						o.ID, o.CreatedAt.Format("2006-01-02 15:04"), o.ItemCount, o.Total.StringFixed(2), o.PaymentMethod)
				}
				return tw.Flush()
			})
		},
	}
}

func printCart(w io.Writer, view *cart.View) {
	if len(view.Items) == 0 {
		fmt.Fprintf(w, "%s is empty\n", view.CartID)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tCOLOR\tQTY\tSUBTOTAL")
	for _, item := range view.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t$%s\n",
			item.ID, item.Name, item.SelectedSize, item.SelectedColor, item.Quantity, item.Subtotal().StringFixed(2))
	}
	tw.Flush()
	fmt.Fprintf(w, "%d items, total $%s\n", view.TotalItems, view.TotalPrice.StringFixed(2))
}
