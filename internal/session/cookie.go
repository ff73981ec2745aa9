package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxCookieBytes keeps the encoded envelope well under common browser limits.
const maxCookieBytes = 3072

// CookieProvider keeps the whole envelope in a browser session cookie. The
// cookie has no expiry, so it dies with the browser session.
type CookieProvider struct {
	Name   string
	Secure bool
}

func NewCookieProvider(name string, secure bool) *CookieProvider {
	if strings.TrimSpace(name) == "" {
		name = DefaultKey
	}
	return &CookieProvider{Name: name, Secure: secure}
}

func (p *CookieProvider) Open(w http.ResponseWriter, r *http.Request) Slot {
	return &cookieSlot{w: w, r: r, name: p.Name, secure: p.Secure}
}

type cookieSlot struct {
	w      http.ResponseWriter
	r      *http.Request
	name   string
	secure bool
}

func (s *cookieSlot) Get(context.Context) ([]byte, error) {
	cookie, err := s.r.Cookie(s.name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, fmt.Errorf("read slot cookie: %w", err)
	}

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		// garbage in the slot reads as a malformed envelope, not an outage
		return []byte(cookie.Value), nil
	}
	return data, nil
}

func (s *cookieSlot) Set(_ context.Context, data []byte) error {
	value := base64.RawURLEncoding.EncodeToString(data)
	if len(value) > maxCookieBytes {
		return fmt.Errorf("%w: envelope of %d bytes exceeds cookie limit", ErrStorageUnavailable, len(value))
	}
	return replaceCookie(s.w, &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *cookieSlot) Remove(context.Context) error {
	return replaceCookie(s.w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// replaceCookie drops earlier Set-Cookie lines for the same name so that only
// the last write of a request reaches the browser.
func replaceCookie(w http.ResponseWriter, cookie *http.Cookie) error {
	line := cookie.String()
	if line == "" {
		return fmt.Errorf("%w: invalid cookie %q", ErrStorageUnavailable, cookie.Name)
	}

	header := w.Header()
	prefix := cookie.Name + "="
	var kept []string
	for _, existing := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(existing, prefix) {
			kept = append(kept, existing)
		}
	}
	header.Del("Set-Cookie")
	for _, existing := range kept {
		header.Add("Set-Cookie", existing)
	}
	header.Add("Set-Cookie", line)
	return nil
}
