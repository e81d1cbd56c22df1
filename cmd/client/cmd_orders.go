package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/client/errstore"
	"github.com/atinyakov/MineAdmin/internal/client/fetch"
	"github.com/atinyakov/MineAdmin/internal/models"
)

func (c *cli) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Follow and update customer orders",
	}
	cmd.AddCommand(
		c.ordersListCmd(),
		c.ordersGetCmd(),
		c.ordersCreateCmd(),
		c.ordersStatusCmd(),
		c.ordersTrackCmd(),
	)
	return cmd
}

func (c *cli) orderCrud() *fetch.Crud[models.Order] {
	return fetch.NewCrud(fetch.Orders(c.app.api), fetch.CrudOptions{Errors: c.app.errors})
}

func (c *cli) ordersListCmd() *cobra.Command {
	var (
		lf     listFlags
		status string
		branch string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if status != "" && !models.OrderStatus(status).Valid() {
				return fmt.Errorf("unknown order status %q", status)
			}
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			st, err := loadPage(ctx, a, fetch.ResourceOrders, a.api.GetOrders, lf, api.Params{"status": status, "branchId": branch})
			if err != nil {
				return err
			}

			t := newTable("Orders", "ID", "STATUS", "ITEMS", "TOTAL", "PLACED")
			for _, o := range st.Items {
				t.add(o.ID, string(o.Status), strconv.Itoa(len(o.Items)), money(o.Total), when(o.CreatedAt))
			}
			if err := t.render(a.out); err != nil {
				return err
			}
			pageFooter(a.out, st.Pagination)
			return nil
		},
	}
	lf.bind(cmd)
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&branch, "branch", "", "branch ID filter")
	return cmd
}

func (c *cli) ordersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			o, err := c.orderCrud().Get(ctx, args[0])
			if err != nil {
				return err
			}
			if err := fields(a.out, "Order "+o.ID,
				[2]string{"Status", string(o.Status)},
				[2]string{"Customer", orDash(o.UserID)},
				[2]string{"Branch", orDash(o.BranchID)},
				[2]string{"Ship to", orDash(o.ShippingAddress)},
				[2]string{"Total", money(o.Total)},
				[2]string{"Placed", when(o.CreatedAt)},
			); err != nil {
				return err
			}
			t := newTable("Items", "PRODUCT", "QTY", "PRICE")
			for _, it := range o.Items {
				t.add(it.ProductID, strconv.Itoa(it.Quantity), money(it.Price))
			}
			return t.render(a.out)
		},
	}
}

// parseItems turns "productID:qty" arguments into order lines. A missing
// quantity means one unit.
func parseItems(args []string) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(args))
	for _, arg := range args {
		id, qty, found := strings.Cut(arg, ":")
		n := 1
		if found {
			var err error
			n, err = strconv.Atoi(qty)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid quantity in %q", arg)
			}
		}
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("missing product in %q", arg)
		}
		items = append(items, models.OrderItem{ProductID: strings.TrimSpace(id), Quantity: n})
	}
	return items, nil
}

func (c *cli) ordersCreateCmd() *cobra.Command {
	var (
		itemArgs []string
		o        models.Order
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Place an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			items, err := parseItems(itemArgs)
			if err != nil {
				return err
			}
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			o.Items = items
			created, err := c.orderCrud().Create(ctx, o)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Placed order %s, total %s", created.ID, money(created.Total))))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&itemArgs, "item", nil, "productID:quantity, repeatable")
	cmd.Flags().StringVar(&o.BranchID, "branch", "", "fulfilling branch ID")
	cmd.Flags().StringVar(&o.ShippingAddress, "address", "", "shipping address")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func (c *cli) ordersStatusCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an order to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			status := models.OrderStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown order status %q", args[1])
			}
			if err := a.requireRole(ctx, orderEditors...); err != nil {
				return err
			}
			o, err := errstore.WithErrorHandling(ctx, a.errors, fetch.ResourceOrders, func(ctx context.Context) (models.Order, error) {
				return a.api.UpdateOrderStatus(ctx, args[0], status, note)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Order %s is now %s", o.ID, o.Status)))
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note stored in the tracking history")
	return cmd
}

func (c *cli) ordersTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <id>",
		Short: "Show the delivery history of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			q := fetch.NewQuery(func(ctx context.Context) (models.Tracking, error) {
				return a.api.TrackOrder(ctx, args[0])
			}, fetch.QueryOptions[models.Tracking]{Context: "tracking", Errors: a.errors})
			tr, err := q.Execute(ctx)
			if err != nil {
				return err
			}

			t := newTable(fmt.Sprintf("Order %s: %s", tr.OrderID, tr.Status), "WHEN", "STATUS", "NOTE")
			for _, e := range tr.Events {
				t.add(when(e.At), string(e.Status), orDash(e.Note))
			}
			return t.render(a.out)
		},
	}
}
