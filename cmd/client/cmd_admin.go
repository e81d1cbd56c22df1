package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/client/errstore"
	"github.com/atinyakov/MineAdmin/internal/client/fetch"
	"github.com/atinyakov/MineAdmin/internal/client/session"
	"github.com/atinyakov/MineAdmin/internal/client/storage"
	"github.com/atinyakov/MineAdmin/internal/models"
)

const defaultReportDays = 30

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Administer user accounts",
	}
	cmd.AddCommand(c.usersListCmd(), c.usersCreateCmd(), c.usersDeleteCmd())
	return cmd
}

func (c *cli) userCrud() *fetch.Crud[models.User] {
	return fetch.NewCrud(fetch.Users(c.app.api), fetch.CrudOptions{Errors: c.app.errors})
}

func (c *cli) usersListCmd() *cobra.Command {
	var (
		lf   listFlags
		role string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireRole(ctx, admins...); err != nil {
				return err
			}
			st, err := loadPage(ctx, a, fetch.ResourceUsers, a.api.GetUsers, lf, api.Params{"role": role})
			if err != nil {
				return err
			}

			t := newTable("Users", "ID", "NAME", "EMAIL", "ROLE", "ACTIVE")
			for _, u := range st.Items {
				t.add(u.ID, u.Name, u.Email, string(session.Role(&u)), strconv.FormatBool(u.Active))
			}
			if err := t.render(a.out); err != nil {
				return err
			}
			pageFooter(a.out, st.Pagination)
			return nil
		},
	}
	lf.bind(cmd)
	cmd.Flags().StringVar(&role, "role", "", "role filter")
	return cmd
}

func (c *cli) usersCreateCmd() *cobra.Command {
	var (
		u    models.User
		role string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			u.Role = models.Role(role)
			if u.Role != "" && !u.Role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if err := a.requireRole(ctx, admins...); err != nil {
				return err
			}
			u.Active = true
			created, err := c.userCrud().Create(ctx, u)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Created %s (%s) as %s", created.Email, created.ID, session.Role(&created))))
			return nil
		},
	}
	cmd.Flags().StringVar(&u.Name, "name", "", "display name")
	cmd.Flags().StringVar(&u.Email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&u.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&u.Phone, "phone", "", "contact number")
	cmd.Flags().StringVar(&u.BranchID, "branch", "", "branch ID for branch managers")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCustomer), "account role")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) usersDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireRole(ctx, admins...); err != nil {
				return err
			}
			if !yes && !storage.Confirm(a.in, a.out, fmt.Sprintf("Delete user %s?", args[0])) {
				fmt.Fprintln(a.out, mutedStyle.Render("Cancelled."))
				return nil
			}
			if err := c.userCrud().Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render("User deleted."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) branchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "branches",
		Aliases: []string{"branch"},
		Short:   "Manage stores and warehouses",
	}
	cmd.AddCommand(c.branchesListCmd(), c.branchesCreateCmd())
	return cmd
}

func (c *cli) branchesListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			st, err := loadPage(ctx, a, fetch.ResourceBranches, a.api.GetBranches, lf, nil)
			if err != nil {
				return err
			}

			t := newTable("Branches", "ID", "NAME", "ADDRESS", "PHONE")
			for _, b := range st.Items {
				t.add(b.ID, b.Name, b.Address, orDash(b.Phone))
			}
			if err := t.render(a.out); err != nil {
				return err
			}
			pageFooter(a.out, st.Pagination)
			return nil
		},
	}
	lf.bind(cmd)
	return cmd
}

func (c *cli) branchesCreateCmd() *cobra.Command {
	var b models.Branch
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireRole(ctx, admins...); err != nil {
				return err
			}
			crud := fetch.NewCrud(fetch.Branches(a.api), fetch.CrudOptions{Errors: a.errors})
			created, err := crud.Create(ctx, b)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("Created branch %s (%s)", created.Name, created.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&b.Name, "name", "", "branch name")
	cmd.Flags().StringVar(&b.Address, "address", "", "street address")
	cmd.Flags().StringVar(&b.Phone, "phone", "", "contact number")
	cmd.Flags().StringVar(&b.ManagerID, "manager", "", "managing user ID")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// reportRange resolves the --from/--to flags. Missing bounds default to the
// last defaultReportDays days ending today.
func reportRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := now.UTC().Truncate(24 * time.Hour)
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q", to)
		}
		end = t
	}
	start := end.AddDate(0, 0, -defaultReportDays)
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q", from)
		}
		start = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}

func (c *cli) reportCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the sales report for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			start, end, err := reportRange(from, to, time.Now())
			if err != nil {
				return err
			}
			if err := a.requireRole(ctx, catalogEditors...); err != nil {
				return err
			}
			r, err := errstore.WithErrorHandling(ctx, a.errors, "reports", func(ctx context.Context) (models.SalesReport, error) {
				return a.api.GetSalesReport(ctx, start, end)
			})
			if err != nil {
				return err
			}

			title := fmt.Sprintf("Sales %s to %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
			pairs := [][2]string{
				{"Orders", strconv.Itoa(r.TotalOrders)},
				{"Revenue", money(r.TotalRevenue)},
			}
			for _, s := range []models.OrderStatus{models.OrderPending, models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderCancelled} {
				pairs = append(pairs, [2]string{"  " + string(s), strconv.Itoa(r.ByStatus[s])})
			}
			if err := fields(a.out, title, pairs...); err != nil {
				return err
			}

			t := newTable("Top products", "PRODUCT", "QTY", "REVENUE")
			for _, p := range r.TopProducts {
				t.add(p.ProductID, strconv.Itoa(p.Quantity), money(p.Revenue))
			}
			return t.render(a.out)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	return cmd
}
