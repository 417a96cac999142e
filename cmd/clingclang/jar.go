package main

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/clingclang/clingclang/authmodel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// fileJar is a cookie jar that keeps the refresh cookie across CLI runs, the
// way a browser keeps its cookie store.
type fileJar struct {
	*cookiejar.Jar
	path    string
	refresh *url.URL
	mu      sync.Mutex
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func newFileJar(path, baseURL string) (*fileJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[newFileJar]")
	}
	refreshURL, err := url.Parse(baseURL + authmodel.RouteAuthRefresh)
	if err != nil {
		return nil, errors.Wrap(err, "[newFileJar] parsing base URL")
	}
	j := &fileJar{Jar: jar, path: path, refresh: refreshURL}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[newFileJar] reading cookies")
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable cookie file")
		return j, nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/api/auth"})
	}
	jar.SetCookies(refreshURL, cookies)
	return j, nil
}

func (j *fileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)
	if err := j.save(); err != nil {
		log.Warn().Err(err).Msg("failed to save cookies")
	}
}

func (j *fileJar) save() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	saved := []savedCookie{}
	for _, c := range j.Jar.Cookies(j.refresh) {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}
