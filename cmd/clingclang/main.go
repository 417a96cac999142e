// Command clingclang is a terminal client for the ClingClang API.
//
// Usage:
//
//	clingclang login [-password secret] <nickname-or-email>
//	clingclang whoami
//	clingclang location [-set -city Gdańsk -lat 54.35 -lon 18.65]
//	clingclang logout
//	clingclang logout-all
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/clingclang/clingclang/apiclient"
	"github.com/clingclang/clingclang/auth"
	"github.com/clingclang/clingclang/events"
	"github.com/clingclang/clingclang/internal/config"
	"github.com/clingclang/clingclang/internal/logging"
	"github.com/clingclang/clingclang/profile"
	"github.com/clingclang/clingclang/session"
	"github.com/clingclang/clingclang/users"
	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const passwordEnvVar = "CLINGCLANG_PASSWORD"

// app is everything a command needs, wired once per run
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	store   *session.Store
	auth    *auth.Service
	profile *profile.Client
	in      io.Reader
	out     io.Writer
	closers []io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("missing command")
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, in, out)
	if err != nil {
		return err
	}
	defer a.close()

	switch args[0] {
	case "login":
		return a.login(ctx, args[1:])
	case "whoami":
		return a.whoami(ctx)
	case "location":
		return a.location(ctx, args[1:])
	case "logout":
		return a.logout(ctx, false)
	case "logout-all":
		return a.logout(ctx, true)
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(out io.Writer) {
	figure.Write(out, figure.NewFigure("ClingClang", "small", true))
	fmt.Fprintln(out, "commands: login, whoami, location, logout, logout-all")
}

func newApp(cfg config.Config, in io.Reader, out io.Writer) (*app, error) {
	logger := logging.New(os.Stderr, cfg.GetLogLevel(), cfg.GetEnv())
	a := &app{cfg: cfg, logger: logger, in: in, out: out}

	persister, err := a.persister()
	if err != nil {
		return nil, err
	}
	a.store, err = session.NewStore(persister, session.WithLogger(logger))
	if err != nil {
		a.close()
		return nil, err
	}

	jar, err := newFileJar(filepath.Join(filepath.Dir(cfg.GetSessionFile()), "cookies.json"), cfg.GetBaseURL())
	if err != nil {
		a.close()
		return nil, err
	}

	bus := events.NewBus(events.WithLogger(logger))
	bus.Subscribe(events.KindTimeout, a.alert)
	bus.Subscribe(events.KindLogout, a.alert)

	api, err := apiclient.New(cfg.GetBaseURL(), a.store, bus,
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
		apiclient.WithCookieJar(jar),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.auth, err = auth.NewService(api, a.store, bus, auth.WithLogger(logger))
	if err != nil {
		a.close()
		return nil, err
	}
	a.profile = profile.NewClient(api)
	return a, nil
}

func (a *app) persister() (session.Persister, error) {
	switch a.cfg.GetSessionBackend() {
	case config.SessionBackendRedis:
		rp, err := session.DialRedisPersister(a.cfg.GetRedisAddr(), a.cfg.GetRedisPassword(), a.cfg.GetRedisDB(), a.cfg.GetSessionRedisKey())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rp)
		return rp, nil
	case config.SessionBackendFile:
		return session.NewFilePersister(a.cfg.GetSessionFile()), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", a.cfg.GetSessionBackend())
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// alert prints session-ending and connectivity events, the terminal version
// of a toast plus a redirect to the login screen. Only a session that ended
// on its own gets the login hint.
func (a *app) alert(e events.Event) {
	fmt.Fprintf(a.out, "! %s\n", e.Message)
	if e.Kind == events.KindLogout && e.Severity != events.SeverityInfo {
		fmt.Fprintln(a.out, "  Run `clingclang login` to sign in again.")
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	password := fs.String("password", "", "password (default: $"+passwordEnvVar+" or prompt)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: clingclang login [-password secret] <nickname-or-email>")
	}

	pw := *password
	if pw == "" {
		pw = config.GetEnv(passwordEnvVar, "")
	}
	if pw == "" {
		var err error
		if pw, err = prompt(a.in, a.out, "Password: "); err != nil {
			return err
		}
	}

	p, err := a.auth.Login(ctx, fs.Arg(0), pw)
	if err != nil {
		a.logger.Debug().Err(err).Msg("login failed")
		return errors.New(auth.ErrorMessage(err, auth.DefaultLoginError))
	}
	fmt.Fprintf(a.out, "Zalogowano jako %s (%s)\n", p.Nickname, p.Role)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	p, err := a.profile.Me(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "Nie udało się pobrać profilu."))
	}
	fmt.Fprintf(a.out, "%s <%s> role=%s verified=%t\n", p.Nickname, p.Email, p.Role, p.Verified)
	return nil
}

func (a *app) location(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("location", flag.ContinueOnError)
	set := fs.Bool("set", false, "save a new location")
	city := fs.String("city", "", "city name")
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	if *set {
		loc := users.Location{City: *city, Latitude: *lat, Longitude: *lon}
		if err := a.profile.UpdateLocation(ctx, loc); err != nil {
			return errors.New(apiclient.Message(err, "Nie udało się zapisać lokalizacji."))
		}
		fmt.Fprintf(a.out, "Zapisano: %s (%.4f, %.4f)\n", loc.City, loc.Latitude, loc.Longitude)
		return nil
	}

	loc, err := a.profile.Location(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "Nie udało się pobrać lokalizacji."))
	}
	if loc == nil {
		fmt.Fprintln(a.out, "Nie ustawiono lokalizacji.")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%.4f, %.4f)\n", loc.City, loc.Latitude, loc.Longitude)
	return nil
}

// requireSession restores the session from the saved state or the refresh
// cookie.
func (a *app) requireSession(ctx context.Context) error {
	_, ok, err := a.auth.Restore(ctx)
	if err != nil {
		return errors.New(auth.ErrorMessage(err, auth.DefaultRestoreError))
	}
	if !ok {
		return errors.New(auth.ErrorMessage(auth.ErrNotLoggedIn, auth.DefaultRestoreError))
	}
	return nil
}

func (a *app) logout(ctx context.Context, everywhere bool) error {
	var err error
	if everywhere {
		err = a.auth.LogoutFromAllDevices(ctx)
	} else {
		err = a.auth.Logout(ctx)
	}
	if err != nil {
		// The local session is cleared even when the server call fails.
		fmt.Fprintln(a.out, auth.ErrorMessage(err, auth.DefaultLogoutError))
	}
	return nil
}

func prompt(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "reading password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
