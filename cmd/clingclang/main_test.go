package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clingclang/clingclang/authmodel"
	"github.com/clingclang/clingclang/events"
	"github.com/clingclang/clingclang/internal/config"
	"github.com/clingclang/clingclang/server"
	"github.com/clingclang/clingclang/session"
	refreshrepofake "github.com/clingclang/clingclang/token/refresh/repofake"
	fakeuserrepo "github.com/clingclang/clingclang/users/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const demoPassword = "demo-pass-123"

type cliFixture struct {
	ts          *httptest.Server
	sessionFile string
}

// setupCLI starts a reference server and points the CLI configuration at it
func setupCLI(t *testing.T) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	t.Setenv(config.ConfigFileEnvVar, "")
	t.Setenv("ENV", "DEV")
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789")
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-pass-123")
	t.Setenv("SEED_DEMO_PASSWORD", demoPassword)
	t.Setenv("SESSION_BACKEND", config.SessionBackendFile)
	t.Setenv("SESSION_FILE", filepath.Join(dir, "session.json"))
	t.Setenv(passwordEnvVar, "")

	cfg, err := config.New()
	require.NoError(t, err)
	srv, err := server.New(cfg, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, server.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	t.Setenv("BASE_URL", ts.URL)

	return &cliFixture{ts: ts, sessionFile: filepath.Join(dir, "session.json")}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestRun_LoginWhoamiLocationLogout(t *testing.T) {
	setupCLI(t)

	out, err := runCLI(t, "", "login", "-password", demoPassword, "demo")
	require.NoError(t, err)
	require.Contains(t, out, "Zalogowano jako demo")

	out, err = runCLI(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "demo")

	out, err = runCLI(t, "", "location")
	require.NoError(t, err)
	require.Contains(t, out, "Nie ustawiono lokalizacji.")

	out, err = runCLI(t, "", "location", "-set", "-city", "Gdańsk", "-lat", "54.35", "-lon", "18.65")
	require.NoError(t, err)
	require.Contains(t, out, "Zapisano: Gdańsk")

	out, err = runCLI(t, "", "location")
	require.NoError(t, err)
	require.Contains(t, out, "Gdańsk (54.3500, 18.6500)")

	out, err = runCLI(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "! "+authmodel.MessageLoggedOut)
	require.NotContains(t, out, "clingclang login")

	_, err = runCLI(t, "", "whoami")
	require.EqualError(t, err, "Nie jesteś zalogowany.")
}

func TestRun_LoginPasswordSources(t *testing.T) {
	setupCLI(t)

	out, err := runCLI(t, demoPassword+"\n", "login", "demo")
	require.NoError(t, err)
	require.Contains(t, out, "Password: ")
	require.Contains(t, out, "Zalogowano jako demo")

	t.Setenv(passwordEnvVar, demoPassword)
	out, err = runCLI(t, "", "login", "demo")
	require.NoError(t, err)
	require.NotContains(t, out, "Password: ")

	t.Setenv(passwordEnvVar, "wrong-password")
	_, err = runCLI(t, "", "login", "demo")
	require.EqualError(t, err, authmodel.MessageInvalidLogin)

	_, err = runCLI(t, "", "login")
	require.Error(t, err)
}

func TestRun_WhoamiRestoresFromCookie(t *testing.T) {
	f := setupCLI(t)

	_, err := runCLI(t, "", "login", "-password", demoPassword, "demo")
	require.NoError(t, err)

	// Without the saved session only the refresh cookie is left.
	require.NoError(t, os.Remove(f.sessionFile))

	out, err := runCLI(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "demo")
	require.FileExists(t, f.sessionFile)
}

func TestRun_LogoutClearsSessionWhenServerIsDown(t *testing.T) {
	f := setupCLI(t)

	_, err := runCLI(t, "", "login", "-password", demoPassword, "demo")
	require.NoError(t, err)
	f.ts.Close()

	out, err := runCLI(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "! "+authmodel.MessageServerTimeout)

	values, err := session.NewFilePersister(f.sessionFile).Load()
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestRun_UnknownCommand(t *testing.T) {
	setupCLI(t)

	out, err := runCLI(t, "", "dance")
	require.EqualError(t, err, `unknown command "dance"`)
	require.Contains(t, out, "commands: login, whoami, location, logout, logout-all")

	var banner bytes.Buffer
	require.EqualError(t, run(context.Background(), nil, strings.NewReader(""), &banner), "missing command")
	require.Greater(t, strings.Count(banner.String(), "\n"), 2)
}

func TestAlert(t *testing.T) {
	var out bytes.Buffer
	a := &app{out: &out}

	a.alert(events.Event{Kind: events.KindTimeout, Message: authmodel.MessageServerTimeout, Severity: events.SeverityError})
	require.Equal(t, "! "+authmodel.MessageServerTimeout+"\n", out.String())

	out.Reset()
	a.alert(events.Event{Kind: events.KindLogout, Message: authmodel.MessageRefreshInvalid, Severity: events.SeverityError})
	require.Equal(t, "! "+authmodel.MessageRefreshInvalid+"\n  Run `clingclang login` to sign in again.\n", out.String())

	out.Reset()
	a.alert(events.Event{Kind: events.KindLogout, Message: authmodel.MessageLoggedOut, Severity: events.SeverityInfo})
	require.Equal(t, "! "+authmodel.MessageLoggedOut+"\n", out.String())
}
