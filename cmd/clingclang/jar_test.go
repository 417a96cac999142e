package main

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileJar_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cookies.json")
	base := "http://localhost:8080"

	jar, err := newFileJar(path, base)
	require.NoError(t, err)

	refreshURL, _ := url.Parse(base + "/api/auth/refresh")
	jar.SetCookies(refreshURL, []*http.Cookie{{Name: "refreshToken", Value: "abc", Path: "/api/auth", HttpOnly: true}})

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := newFileJar(path, base)
	require.NoError(t, err)
	cookies := reopened.Cookies(refreshURL)
	require.Len(t, cookies, 1)
	require.Equal(t, "refreshToken", cookies[0].Name)
	require.Equal(t, "abc", cookies[0].Value)

	other, _ := url.Parse(base + "/api/users/me")
	require.Empty(t, reopened.Cookies(other))
}

func TestFileJar_ClearedCookieIsForgotten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	base := "http://localhost:8080"
	refreshURL, _ := url.Parse(base + "/api/auth/refresh")

	jar, err := newFileJar(path, base)
	require.NoError(t, err)
	jar.SetCookies(refreshURL, []*http.Cookie{{Name: "refreshToken", Value: "abc", Path: "/api/auth"}})
	jar.SetCookies(refreshURL, []*http.Cookie{{Name: "refreshToken", Value: "", Path: "/api/auth", MaxAge: -1}})

	reopened, err := newFileJar(path, base)
	require.NoError(t, err)
	require.Empty(t, reopened.Cookies(refreshURL))
}

func TestFileJar_UnreadableFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	jar, err := newFileJar(path, "http://localhost:8080")
	require.NoError(t, err)
	u, _ := url.Parse("http://localhost:8080/api/auth/refresh")
	require.Empty(t, jar.Cookies(u))
}
