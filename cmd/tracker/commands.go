package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"budgettracker/internal/chart"
	"budgettracker/internal/config"
	apperrors "budgettracker/internal/errors"
	"budgettracker/internal/gateway"
	"budgettracker/internal/ledger"
	"budgettracker/internal/session"
	"budgettracker/internal/tracker"
	"budgettracker/internal/validator"
)

// app is the client wiring shared by every command.
type app struct {
	storage *session.DBStorage
	tracker *tracker.Tracker
	prefs   *session.Preferences
	out     io.Writer
}

func newApp(out io.Writer) (*app, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	storage, err := session.OpenDBStorage(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	holder := session.NewHolder(storage)
	gw := gateway.NewClient(cfg.APIURL, holder, &http.Client{Timeout: cfg.RequestTimeout})
	return &app{
		storage: storage,
		tracker: tracker.New(gw, holder),
		prefs:   session.NewPreferences(storage),
		out:     out,
	}, nil
}

func (a *app) Close() error {
	return a.storage.Close()
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"register": cmdRegister,
	"login":    cmdLogin,
	"logout":   cmdLogout,
	"status":   cmdStatus,
	"list":     cmdList,
	"add":      cmdAdd,
	"edit":     cmdEdit,
	"remove":   cmdRemove,
	"summary":  cmdSummary,
	"chart":    cmdChart,
	"theme":    cmdTheme,
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		usage(out)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	a, err := newApp(out)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return cmd(ctx, a, args[1:])
}

// ready restores the session and syncs, failing when there is nothing to
// work with.
func (a *app) ready(ctx context.Context) error {
	if err := a.tracker.Start(ctx); err != nil {
		return err
	}
	if a.tracker.Phase() == tracker.PhaseUnauthenticated {
		return apperrors.WithMessage(apperrors.ErrUnauthenticated, "not logged in, run `tracker login` first")
	}
	return nil
}

func credentialFlags(name string, args []string) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if *username == "" || *password == "" {
		return "", "", fmt.Errorf("%s requires -u and -p", name)
	}
	return *username, *password, nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	username, password, err := credentialFlags("register", args)
	if err != nil {
		return err
	}
	if err := a.tracker.Register(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s created. Run `tracker login` to sign in.\n", username)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	username, password, err := credentialFlags("login", args)
	if err != nil {
		return err
	}
	if err := a.tracker.Login(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s, %d transaction(s) synced.\n", username, len(a.tracker.Store().Current()))
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	if err := a.tracker.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func cmdStatus(ctx context.Context, a *app, _ []string) error {
	err := a.tracker.Start(ctx)
	fmt.Fprintf(a.out, "phase: %s\n", a.tracker.Phase())
	if err != nil {
		fmt.Fprintf(a.out, "last error: %v\n", err)
	}
	return nil
}

func cmdList(ctx context.Context, a *app, _ []string) error {
	if err := a.ready(ctx); err != nil {
		return err
	}
	printTransactions(a.out, a.tracker.Store().Current())
	return nil
}

// draftFlags binds the transaction fields onto fs.
func draftFlags(fs *flag.FlagSet) *ledger.Draft {
	d := &ledger.Draft{}
	fs.StringVar((*string)(&d.Type), "type", "", "income or expense")
	fs.StringVar(&d.Category, "category", "", "category")
	fs.StringVar(&d.Amount, "amount", "", "amount, e.g. 12.50")
	fs.StringVar(&d.Description, "desc", "", "description")
	fs.StringVar(&d.Date, "date", time.Now().Format(validator.DateLayout), "date (YYYY-MM-DD)")
	return d
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	draft := draftFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.ready(ctx); err != nil {
		return err
	}

	tx, err := a.tracker.Store().Add(ctx, *draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s.\n", tx.ID)
	return nil
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	id := fs.String("id", "", "transaction id")
	draft := draftFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("edit requires -id")
	}
	if err := a.ready(ctx); err != nil {
		return err
	}

	tx, err := a.tracker.Store().Edit(ctx, ledger.ID(*id), *draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s.\n", tx.ID)
	return nil
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	id := fs.String("id", "", "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("remove requires -id")
	}
	if err := a.ready(ctx); err != nil {
		return err
	}

	if err := a.tracker.Store().Remove(ctx, ledger.ID(*id)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s.\n", *id)
	return nil
}

func cmdSummary(ctx context.Context, a *app, _ []string) error {
	if err := a.ready(ctx); err != nil {
		return err
	}
	printSummary(a.out, a.tracker.Summary())
	return nil
}

func cmdChart(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	path := fs.String("o", "summary.png", "output file (.png or .svg)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := chart.ParseFormat(filepath.Ext(*path))
	if err != nil {
		return err
	}
	if err := a.ready(ctx); err != nil {
		return err
	}

	f, err := os.Create(*path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *path, err)
	}
	renderErr := chart.Render(f, a.tracker.Summary(), format)
	closeErr := f.Close()
	if renderErr != nil {
		_ = os.Remove(*path)
		return renderErr
	}
	if closeErr != nil {
		return closeErr
	}
	fmt.Fprintf(a.out, "Chart written to %s.\n", *path)
	return nil
}

func cmdTheme(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		theme, err := a.prefs.Theme()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, theme)
		return nil
	}

	switch args[0] {
	case session.ThemeDark:
		return a.prefs.SetDarkMode(true)
	case session.ThemeLight:
		return a.prefs.SetDarkMode(false)
	default:
		return fmt.Errorf("unknown theme %q (use %s or %s)", args[0], session.ThemeLight, session.ThemeDark)
	}
}
