package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServerProvider keeps envelopes in a Backend and hands the browser only a
// random slot id in a session cookie.
type ServerProvider struct {
	backend    Backend
	cookieName string
	secure     bool
	ttl        time.Duration
}

func NewServerProvider(backend Backend, key string, secure bool, ttl time.Duration) *ServerProvider {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = TTL
	}
	return &ServerProvider{
		backend:    backend,
		cookieName: key + "_SID",
		secure:     secure,
		ttl:        ttl,
	}
}

func (p *ServerProvider) Open(w http.ResponseWriter, r *http.Request) Slot {
	slot := &serverSlot{provider: p, w: w}
	if cookie, err := r.Cookie(p.cookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			slot.id = id.String()
		}
	}
	return slot
}

func (p *ServerProvider) Close() error {
	return p.backend.Close()
}

type serverSlot struct {
	provider *ServerProvider
	w        http.ResponseWriter
	id       string
}

func (s *serverSlot) Get(ctx context.Context) ([]byte, error) {
	if s.id == "" {
		return nil, nil
	}
	data, err := s.provider.backend.Get(ctx, s.id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read slot %s: %w", s.id, err)
	}
	return data, nil
}

func (s *serverSlot) Set(ctx context.Context, data []byte) error {
	if s.id == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("%w: generate slot id: %v", ErrStorageUnavailable, err)
		}
		s.id = id.String()
		if err := replaceCookie(s.w, s.cookie(s.id, 0)); err != nil {
			return err
		}
	}

	if err := s.provider.backend.Set(ctx, s.id, data, s.provider.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *serverSlot) Remove(ctx context.Context) error {
	if s.id == "" {
		return nil
	}
	id := s.id
	s.id = ""
	if err := replaceCookie(s.w, s.cookie("", -1)); err != nil {
		return err
	}
	if err := s.provider.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *serverSlot) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.provider.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.provider.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ErrSlotNotFound is returned by backends for a missing or expired slot.
var ErrSlotNotFound = errors.New("slot not found")
