package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/client/errstore"
	"github.com/atinyakov/MineAdmin/internal/client/fetch"
	"github.com/atinyakov/MineAdmin/internal/client/storage"
	"github.com/atinyakov/MineAdmin/internal/models"
)

var (
	admins         = []models.Role{models.RoleSuperAdmin, models.RoleAdmin}
	catalogEditors = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleShopManager}
	orderEditors   = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleShopManager, models.RoleBranchManager}
)

// listFlags are the paging and search flags shared by list commands.
type listFlags struct {
	page   int
	limit  int
	search string
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page to show")
	cmd.Flags().IntVar(&f.limit, "limit", fetch.DefaultPageSize, "items per page")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "search term")
}

// loadPage fetches one page through a Paginated list so failures land in
// the error store under tag.
func loadPage[T any](ctx context.Context, a *app, tag string, fn fetch.PageFunc[T], f listFlags, params api.Params) (fetch.PaginatedState[T], error) {
	if params == nil {
		params = api.Params{}
	}
	if f.search != "" {
		params["search"] = f.search
	}
	p := fetch.NewPaginated(fn, fetch.PaginatedOptions{
		PageSize: f.limit,
		Params:   params,
		Context:  tag,
		Errors:   a.errors,
	})
	err := p.GoToPage(ctx, f.page)
	return p.State(), err
}

func (c *cli) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and edit the product catalog",
	}
	cmd.AddCommand(
		c.productsListCmd(),
		c.productsGetCmd(),
		c.productsCreateCmd(),
		c.productsStockCmd(),
		c.productsDeleteCmd(),
		c.productsUploadCmd(),
	)
	return cmd
}

func (c *cli) productCrud() *fetch.Crud[models.Product] {
	return fetch.NewCrud(fetch.Products(c.app.api), fetch.CrudOptions{Errors: c.app.errors})
}

func (c *cli) productsListCmd() *cobra.Command {
	var (
		lf       listFlags
		category string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			st, err := loadPage(ctx, a, fetch.ResourceProducts, a.api.GetProducts, lf, api.Params{"categoryId": category})
			if err != nil {
				return err
			}

			t := newTable("Products", "ID", "NAME", "SKU", "PRICE", "STOCK")
			for _, p := range st.Items {
				t.add(p.ID, p.Name, orDash(p.SKU), money(p.Price), strconv.Itoa(p.Stock))
			}
			if err := t.render(a.out); err != nil {
				return err
			}
			pageFooter(a.out, st.Pagination)
			return nil
		},
	}
	lf.bind(cmd)
	cmd.Flags().StringVar(&category, "category", "", "category ID filter")
	return cmd
}

func (c *cli) productsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			p, err := c.productCrud().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return fields(a.out, p.Name,
				[2]string{"ID", p.ID},
				[2]string{"SKU", orDash(p.SKU)},
				[2]string{"Category", orDash(p.CategoryID)},
				[2]string{"Price", money(p.Price)},
				[2]string{"Stock", strconv.Itoa(p.Stock)},
				[2]string{"Description", orDash(p.Description)},
				[2]string{"Created", when(p.CreatedAt)},
			)
		},
	}
}

func (c *cli) productsCreateCmd() *cobra.Command {
	var p models.Product
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireRole(ctx, catalogEditors...); err != nil {
				return err
			}
			created, err := c.productCrud().Create(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Created product %s (%s)", created.Name, created.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "product name")
	cmd.Flags().StringVar(&p.Description, "description", "", "description")
	cmd.Flags().StringVar(&p.SKU, "sku", "", "stock keeping unit")
	cmd.Flags().StringVar(&p.CategoryID, "category", "", "category ID")
	cmd.Flags().Float64Var(&p.Price, "price", 0, "unit price")
	cmd.Flags().IntVar(&p.Stock, "stock", 0, "units in stock")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (c *cli) productsStockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stock <id> <units>",
		Short: "Set the stock level of a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			units, err := strconv.Atoi(args[1])
			if err != nil || units < 0 {
				return fmt.Errorf("invalid stock %q", args[1])
			}
			if err := a.requireRole(ctx, catalogEditors...); err != nil {
				return err
			}

			crud := c.productCrud()
			p, err := crud.Get(ctx, args[0])
			if err != nil {
				return err
			}
			p.Stock = units
			if _, err := crud.Update(ctx, p.ID, p); err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("%s now has %d in stock", p.Name, units)))
			return nil
		},
	}
}

func (c *cli) productsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireRole(ctx, catalogEditors...); err != nil {
				return err
			}
			if !yes && !storage.Confirm(a.in, a.out, fmt.Sprintf("Delete product %s?", args[0])) {
				fmt.Fprintln(a.out, mutedStyle.Render("Cancelled."))
				return nil
			}
			if err := c.productCrud().Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render("Product deleted."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) productsUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Import products from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireRole(ctx, catalogEditors...); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer f.Close()

			res, err := errstore.WithErrorHandling(ctx, a.errors, "upload", func(ctx context.Context) (api.BulkUploadResult, error) {
				return a.api.BulkUploadProducts(ctx, filepath.Base(args[0]), f)
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Imported %d products", res.Created)))
			if res.Failed == 0 {
				return nil
			}
			fmt.Fprintln(a.out, warnStyle.Render(fmt.Sprintf("%d rows failed:", res.Failed)))
			for _, msg := range res.Errors {
				fmt.Fprintln(a.out, "  "+msg)
			}
			return errors.New("some rows were not imported")
		},
	}
}
