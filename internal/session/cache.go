// Package session caches the booking-site credential for a bounded time.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/gymslot/internal/errors"
)

// DefaultTTL is how long a credential is reused before logging in again.
const DefaultTTL = time.Hour

type Credential struct {
	Token      string
	ObtainedAt time.Time
}

// Fresh reports whether c was obtained less than ttl before now.
func (c Credential) Fresh(now time.Time, ttl time.Duration) bool {
	if c.Token == "" {
		return false
	}
	return now.Sub(c.ObtainedAt) < ttl
}

// Authenticator performs a full login and returns the raw token.
type Authenticator interface {
	Login(ctx context.Context) (string, error)
}

// Source is what callers that need a credential depend on.
type Source interface {
	Credential(ctx context.Context) (Credential, error)
}

type Cache struct {
	auth Authenticator
	ttl  time.Duration
	now  func() time.Time

	mu     sync.Mutex
	cached Credential
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewCache(auth Authenticator, opts ...Option) *Cache {
	c := &Cache{
		auth: auth,
		ttl:  DefaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Credential returns the cached credential while fresh, otherwise logs in.
// A failed login leaves the cache untouched and returns an error wrapping errors.ErrLogin.
func (c *Cache) Credential(ctx context.Context) (Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cached.Fresh(now, c.ttl) {
		slog.Debug("Using cached session", "age", now.Sub(c.cached.ObtainedAt).Round(time.Second))
		return c.cached, nil
	}

	token, err := c.auth.Login(ctx)
	if err != nil {
		if !errors.IsCategory(err, errors.ErrLogin) {
			err = fmt.Errorf("%w: %w", errors.ErrLogin, err)
		}
		return Credential{}, err
	}
	if token == "" {
		return Credential{}, errors.Login("login returned an empty token")
	}

	c.cached = Credential{Token: token, ObtainedAt: c.now()}
	slog.Info("Logged in to booking site")
	return c.cached, nil
}

// Invalidate drops the cached credential.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = Credential{}
}
