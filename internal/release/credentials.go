package release

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoSession is returned by a SessionProvider that has nothing to offer.
var ErrNoSession = errors.New("no authentication session available")

// Session is an authentication session handed out by a SessionProvider.
type Session struct {
	ID          string
	AccessToken string
}

// SessionProvider is the external source of authentication sessions.
// When interactive is false the provider must not prompt anybody.
type SessionProvider interface {
	Session(ctx context.Context, interactive bool) (*Session, error)
}

// Credential is the token currently attached to API requests.
type Credential struct {
	SessionID string
	Token     string
}

// Credentials holds the process-wide credential. It is filled lazily on
// the first token request, replaced by Authenticate and cleared whenever
// the provider reports a session change.
type Credentials struct {
	provider SessionProvider

	mu        sync.Mutex
	cred      *Credential
	attempted bool
}

// NewCredentials creates a credential holder backed by provider.
// A nil provider means anonymous access only.
func NewCredentials(provider SessionProvider) *Credentials {
	return &Credentials{provider: provider}
}

// Token returns the current token, asking the provider silently once if no
// credential has been loaded yet. Absence of a token is not an error.
func (c *Credentials) Token(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred == nil && !c.attempted && c.provider != nil {
		c.attempted = true
		if s, err := c.provider.Session(ctx, false); err == nil && s != nil && s.AccessToken != "" {
			c.cred = &Credential{SessionID: s.ID, Token: s.AccessToken}
		}
	}

	if c.cred == nil {
		return ""
	}
	return c.cred.Token
}

// Current returns a copy of the credential, or nil when anonymous.
func (c *Credentials) Current() *Credential {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred == nil {
		return nil
	}
	cred := *c.cred
	return &cred
}

// Present reports whether a credential is set.
func (c *Credentials) Present() bool {
	return c.Current() != nil
}

// Authenticate asks the provider for a session, allowing it to prompt.
func (c *Credentials) Authenticate(ctx context.Context) error {
	if c.provider == nil {
		return ErrNoSession
	}

	s, err := c.provider.Session(ctx, true)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if s == nil || s.AccessToken == "" {
		return ErrNoSession
	}

	c.mu.Lock()
	c.cred = &Credential{SessionID: s.ID, Token: s.AccessToken}
	c.attempted = true
	c.mu.Unlock()
	return nil
}

// Invalidate drops the credential. The next Token call asks the provider
// again.
func (c *Credentials) Invalidate() {
	c.mu.Lock()
	c.cred = nil
	c.attempted = false
	c.mu.Unlock()
}

// Watch invalidates the credential for every notification on changes until
// ctx is done or changes is closed.
func (c *Credentials) Watch(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			c.Invalidate()
		}
	}
}
