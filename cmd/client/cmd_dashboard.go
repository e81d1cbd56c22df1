package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/client/errstore"
	"github.com/atinyakov/MineAdmin/internal/client/fetch"
	"github.com/atinyakov/MineAdmin/internal/models"
)

const (
	tagDashboard          = "dashboard"
	defaultHealthInterval = 5 * time.Second
)

// overview is what the dashboard shows. Counts the user may not read stay
// at -1.
type overview struct {
	health   models.Health
	info     models.Info
	products int
	pending  int
	users    int
}

// totalOf asks a list endpoint for a single item and returns its total.
func totalOf[T any](fn fetch.PageFunc[T], params api.Params) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		p := params.Clone()
		p["page"] = "1"
		p["limit"] = "1"
		page, err := fn(ctx, p)
		if err != nil {
			return 0, err
		}
		return page.Pagination.Total, nil
	}
}

func (c *cli) loadOverview(ctx context.Context) (overview, error) {
	a := c.app
	ov := overview{users: -1}
	a.errors.ClearByContext(tagDashboard)

	g, ctx := errgroup.WithContext(ctx)
	track := func(fn func(context.Context) error) {
		g.Go(func() error {
			err := fn(ctx)
			// calls cancelled by an earlier failure are not reported again
			if err != nil && ctx.Err() == nil {
				a.errors.HandleAPIError(err, tagDashboard, errstore.AddOptions{})
			}
			return err
		})
	}

	track(func(ctx context.Context) (err error) {
		ov.health, err = a.api.Health(ctx)
		return err
	})
	track(func(ctx context.Context) (err error) {
		ov.info, err = a.api.Info(ctx)
		return err
	})
	track(func(ctx context.Context) (err error) {
		ov.products, err = totalOf(a.api.GetProducts, nil)(ctx)
		return err
	})
	track(func(ctx context.Context) (err error) {
		ov.pending, err = totalOf(a.api.GetOrders, api.Params{"status": string(models.OrderPending)})(ctx)
		return err
	})
	if a.session.HasAnyRole(admins...) {
		track(func(ctx context.Context) (err error) {
			ov.users, err = totalOf(a.api.GetUsers, nil)(ctx)
			return err
		})
	}

	return ov, g.Wait()
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show backend status and headline counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			ov, err := c.loadOverview(ctx)
			if err != nil {
				return err
			}

			users := "-"
			if ov.users >= 0 {
				users = strconv.Itoa(ov.users)
			}
			return fields(a.out, "MineAdmin",
				[2]string{"Backend", fmt.Sprintf("%s %s (%s)", ov.info.Name, ov.info.Version, orDash(ov.info.Environment))},
				[2]string{"Health", ov.health.Status},
				[2]string{"Signed in as", fmt.Sprintf("%s (%s)", a.session.User().Email, a.session.Role())},
				[2]string{"Products", strconv.Itoa(ov.products)},
				[2]string{"Pending orders", strconv.Itoa(ov.pending)},
				[2]string{"Users", users},
			)
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx := cmd.Context()
			if interval <= 0 {
				return fmt.Errorf("invalid interval %s", interval)
			}

			done := make(chan struct{})
			var (
				mu   sync.Mutex
				seen int
			)
			p := fetch.NewPoller(a.api.Health, interval, fetch.PollerOptions[models.Health]{
				Immediate: true,
				Context:   "health",
				Errors:    a.errors,
				Logger:    a.log,
				OnResult: func(h models.Health, err error) {
					mu.Lock()
					defer mu.Unlock()
					if count > 0 && seen >= count {
						return
					}
					stamp := time.Now().Format(time.TimeOnly)
					if err != nil {
						fmt.Fprintln(a.out, errorStyle.Render(fmt.Sprintf("%s down: %v", stamp, err)))
					} else {
						fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("%s %s", stamp, h.Status)))
					}
					seen++
					if seen == count {
						close(done)
					}
				},
			})
			p.Start(ctx)
			defer p.Stop()

			select {
			case <-ctx.Done():
			case <-done:
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", defaultHealthInterval, "time between polls")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many polls; 0 runs until interrupted")
	return cmd
}
