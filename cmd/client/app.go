package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/client/errstore"
	"github.com/atinyakov/MineAdmin/internal/client/session"
	"github.com/atinyakov/MineAdmin/internal/client/storage"
	"github.com/atinyakov/MineAdmin/internal/config"
	"github.com/atinyakov/MineAdmin/internal/logger"
	"github.com/atinyakov/MineAdmin/internal/models"
)

const (
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 2 * time.Second
)

// app is the client stack shared by every command.
type app struct {
	cfg     config.Client
	log     *zap.Logger
	jar     *storage.CookieJar
	api     *api.Client
	session *session.Manager
	errors  *errstore.Store
	nav     *api.RouteTracker

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newApp(cfg config.Client, log *zap.Logger, in io.Reader, out, errOut io.Writer) (*app, error) {
	jar, err := storage.NewCookieJar(cfg.APIBaseURL, cfg.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	jar.SetLogger(log)
	if err := jar.Load(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	hc, err := storage.NewHTTPClient(cfg.CAFile, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	nav := api.NewRouteTracker("/")
	nav.OnNavigate = func(route string) {
		log.Debug("navigate", zap.String("route", route))
	}

	opts := []api.Option{
		api.WithJar(jar),
		api.WithNavigator(nav),
		api.WithHTTPClient(hc),
		api.WithLogger(log),
	}
	if cfg.RetryAttempts > 1 {
		opts = append(opts, api.WithRetryPolicy(api.RetryPolicy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   retryBaseDelay,
			MaxDelay:    retryMaxDelay,
		}))
	}
	client, err := api.New(cfg.APIBaseURL, opts...)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(client, client, session.WithLogger(log))
	client.OnUnauthorized(mgr.Reset)

	return &app{
		cfg:     cfg,
		log:     log,
		jar:     jar,
		api:     client,
		session: mgr,
		errors:  errstore.New(errstore.WithLogger(log)),
		nav:     nav,
		in:      in,
		out:     out,
		errOut:  errOut,
	}, nil
}

// requireSession resolves the stored session and fails without one.
func (a *app) requireSession(ctx context.Context) error {
	if !a.session.Init(ctx).IsAuthenticated {
		return fmt.Errorf("%w: run 'mineadmin login' first", session.ErrNotAuthenticated)
	}
	return nil
}

// requireRole resolves the session and checks the user holds one of roles.
func (a *app) requireRole(ctx context.Context, roles ...models.Role) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	return a.session.RequireRole(roles...)
}

// finish persists the cookie jar and prints the buffered errors. It reports
// whether anything was printed.
func (a *app) finish() (bool, error) {
	saveErr := a.jar.Save()

	entries := a.errors.Errors()
	a.errors.ClearAll()
	if err := errstore.Render(a.errOut, entries, errstore.RenderOptions{DevMode: a.cfg.IsDev}); err != nil {
		return false, err
	}
	if saveErr != nil {
		return len(entries) > 0, fmt.Errorf("save session: %w", saveErr)
	}
	return len(entries) > 0, nil
}

// cli builds the command tree and owns the app for one invocation.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	version   string
	buildDate string

	loadConfig func() (config.Client, error)
	newLogger  func(level string) (*zap.Logger, error)

	app *app
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:         in,
		out:        out,
		errOut:     errOut,
		version:    "N/A",
		buildDate:  "N/A",
		loadConfig: config.LoadClient,
		newLogger: func(level string) (*zap.Logger, error) {
			l := logger.New()
			if err := l.Init(level); err != nil {
				return nil, err
			}
			return l.Log, nil
		},
	}
}

// setup loads the configuration and wires the app before any command runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.app != nil {
		return nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		cfg.IsDev = true
	}
	log, err := c.newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log, c.in, c.out, c.errOut)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// Execute runs the command named by args. Errors that were not already
// printed from the error store are written to errOut.
func (c *cli) Execute(ctx context.Context, args []string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	err := root.ExecuteContext(ctx)

	printed := false
	if c.app != nil {
		var finishErr error
		printed, finishErr = c.app.finish()
		if finishErr != nil && err == nil {
			err = finishErr
		}
		_ = c.app.log.Sync()
	}
	if err != nil && !printed {
		fmt.Fprintln(c.errOut, errorStyle.Render("Error: "+err.Error()))
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "mineadmin",
		Short:             "MineAdmin administration client",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().Bool("dev", false, "show the original error under each message")

	root.AddCommand(
		c.versionCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.productsCmd(),
		c.ordersCmd(),
		c.usersCmd(),
		c.branchesCmd(),
		c.reportCmd(),
		c.dashboardCmd(),
		c.watchCmd(),
	)
	return root
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// the version needs no configuration or session
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(c.out, "Build version: %s\nBuild date: %s\n", c.version, c.buildDate)
		},
	}
}
