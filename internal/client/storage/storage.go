package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const (
	// SessionCookieName is the HTTP-only cookie holding the session token.
	SessionCookieName = "auth_token"
	// IndicatorCookieName is the readable companion cookie the backend sets
	// alongside the session cookie.
	IndicatorCookieName = "auth_status"
)

type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

func (s storedCookie) expired(now time.Time) bool {
	return !s.Expires.IsZero() && !s.Expires.After(now)
}

func (s storedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    s.Value,
		Path:     s.Path,
		Domain:   s.Domain,
		Expires:  s.Expires,
		Secure:   s.Secure,
		HttpOnly: s.HttpOnly,
	}
}

// CookieJar is an http.CookieJar for a single backend that can persist its
// cookies to a JSON file so a session survives between CLI runs. The
// session cookie is the only credential the client keeps.
type CookieJar struct {
	path string
	base *url.URL
	log  *zap.Logger

	mu      sync.Mutex
	jar     *cookiejar.Jar
	cookies map[string]storedCookie
}

// NewCookieJar returns a jar scoped to baseURL. When path is empty the jar
// lives in memory only.
func NewCookieJar(baseURL, path string) (*CookieJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &CookieJar{
		path:    path,
		base:    base,
		log:     zap.NewNop(),
		jar:     inner,
		cookies: make(map[string]storedCookie),
	}, nil
}

// SetLogger sets the logger used to report background persist failures.
func (j *CookieJar) SetLogger(log *zap.Logger) {
	if log != nil {
		j.log = log
	}
}

// SetCookies implements http.CookieJar.
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	now := time.Now()
	j.mu.Lock()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.cookies, c.Name)
			continue
		}
		sc := storedCookie{
			URL:      u.String(),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies[c.Name] = sc
	}
	j.mu.Unlock()

	// http.CookieJar has no error return; callers that must know call Save.
	if err := j.Save(); err != nil {
		j.log.Warn("persist session cookies", zap.String("path", j.path), zap.Error(err))
	}
}

// Cookies implements http.CookieJar.
func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// HasSession reports whether a session cookie (or its readable companion)
// is present for the backend. The cookie value is never inspected.
func (j *CookieJar) HasSession() bool {
	for _, c := range j.jar.Cookies(j.base) {
		if c.Name == SessionCookieName || c.Name == IndicatorCookieName {
			return true
		}
	}
	return false
}

// ClearSession drops the session cookies from the jar and the backing file.
func (j *CookieJar) ClearSession() {
	var expired []*http.Cookie
	j.mu.Lock()
	for _, name := range []string{SessionCookieName, IndicatorCookieName} {
		path, domain := "/", ""
		if sc, ok := j.cookies[name]; ok {
			if sc.Path != "" {
				path = sc.Path
			}
			domain = sc.Domain
		}
		expired = append(expired, &http.Cookie{Name: name, Path: path, Domain: domain, MaxAge: -1})
	}
	j.mu.Unlock()

	j.SetCookies(j.base, expired)
}

// Load restores cookies saved by a previous run. A missing file leaves the
// jar empty.
func (j *CookieJar) Load() error {
	if j.path == "" {
		return nil
	}
	f, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	var saved []storedCookie
	if err := json.NewDecoder(f).Decode(&saved); err != nil {
		return fmt.Errorf("decode %s: %w", j.path, err)
	}

	now := time.Now()
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, sc := range saved {
		if sc.expired(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{sc.cookie()})
		j.cookies[sc.Name] = sc
	}
	return nil
}

// Save writes the current cookies to the backing file.
func (j *CookieJar) Save() error {
	if j.path == "" {
		return nil
	}
	j.mu.Lock()
	saved := make([]storedCookie, 0, len(j.cookies))
	for _, sc := range j.cookies {
		saved = append(saved, sc)
	}
	j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(saved)
}
