package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"idconsole/internal/fileutil"
)

// Jar is an http.CookieJar whose cookies for one backend origin can be saved
// to and loaded from a session file.
type Jar struct {
	inner *cookiejar.Jar
	base  *url.URL
	path  string

	mu      sync.Mutex
	cookies map[string]storedCookie
}

type storedCookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Path     string     `json:"path,omitempty"`
	Domain   string     `json:"domain,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HTTPOnly bool       `json:"http_only,omitempty"`
}

type sessionFile struct {
	Backends map[string][]storedCookie `json:"backends"`
}

// OpenJar returns a jar for base backed by path. Cookies saved for base are
// loaded; a missing file starts empty.
func OpenJar(path string, base *url.URL) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	jar := &Jar{inner: inner, base: base, path: path, cookies: map[string]storedCookie{}}
	if path == "" {
		return jar, nil
	}

	lock, err := lockFile(path)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	file, err := readSessionFile(path)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var restored []*http.Cookie
	for _, stored := range file.Backends[originKey(base)] {
		if stored.Expires != nil && stored.Expires.Before(now) {
			continue
		}
		jar.cookies[stored.Name] = stored
		restored = append(restored, stored.cookie())
	}
	if len(restored) > 0 {
		inner.SetCookies(base, restored)
	}
	return jar, nil
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	inner := j.inner
	j.mu.Unlock()
	return inner.Cookies(u)
}

// SetCookies implements http.CookieJar and remembers cookies for the backend
// origin so they can be saved.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
	if u.Host != j.base.Host {
		return
	}
	now := time.Now()
	for _, c := range cookies {
		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now))
		if expired || c.Value == "" {
			delete(j.cookies, c.Name)
			continue
		}
		stored := storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge > 0:
			expires := now.Add(time.Duration(c.MaxAge) * time.Second)
			stored.Expires = &expires
		case !c.Expires.IsZero():
			expires := c.Expires
			stored.Expires = &expires
		}
		j.cookies[c.Name] = stored
	}
}

// Len returns the number of remembered cookies.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

// Save writes the remembered cookies for the backend origin. Entries for
// other backends in the same file are kept.
func (j *Jar) Save() error {
	if j.path == "" {
		return nil
	}
	j.mu.Lock()
	cookies := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		cookies = append(cookies, c)
	}
	j.mu.Unlock()
	return j.update(func(file *sessionFile) {
		if len(cookies) == 0 {
			delete(file.Backends, originKey(j.base))
			return
		}
		file.Backends[originKey(j.base)] = cookies
	})
}

// Forget drops every cookie for the backend origin, in memory and on disk.
func (j *Jar) Forget() error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.inner = inner
	j.cookies = map[string]storedCookie{}
	j.mu.Unlock()
	if j.path == "" {
		return nil
	}
	return j.update(func(file *sessionFile) {
		delete(file.Backends, originKey(j.base))
	})
}

func (j *Jar) update(mutate func(*sessionFile)) error {
	lock, err := lockFile(j.path)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	file, err := readSessionFile(j.path)
	if err != nil {
		return err
	}
	mutate(&file)
	return writeSessionFile(j.path, file)
}

func (c storedCookie) cookie() *http.Cookie {
	out := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
	if out.Path == "" {
		out.Path = "/"
	}
	if c.Expires != nil {
		out.Expires = *c.Expires
	}
	return out
}

func originKey(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

func lockFile(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure session directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock session file: %w", err)
	}
	return lock, nil
}

func readSessionFile(path string) (sessionFile, error) {
	file := sessionFile{Backends: map[string][]storedCookie{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return file, nil
		}
		return file, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return file, nil
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("decode session file: %w", err)
	}
	if file.Backends == nil {
		file.Backends = map[string][]storedCookie{}
	}
	return file, nil
}

func writeSessionFile(path string, file sessionFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
