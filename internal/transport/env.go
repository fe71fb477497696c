// Package transport holds what the wallet transports share: the host
// environment they run in.
package transport

import (
	"context"
	"sync"

	"dappkit/internal/domain"
)

// Env is a fixed domain.Environment. OpenURL hands links to Opener, or
// records them when Opener is nil.
type Env struct {
	Mobile    bool
	OriginURL string
	Opener    func(ctx context.Context, url string) error

	mu     sync.Mutex
	opened []string
}

var _ domain.Environment = (*Env)(nil)

// IsMobile implements domain.Environment.
func (e *Env) IsMobile() bool { return e.Mobile }

// Origin implements domain.Environment.
func (e *Env) Origin() string { return e.OriginURL }

// OpenURL implements domain.Environment.
func (e *Env) OpenURL(ctx context.Context, url string) error {
	e.mu.Lock()
	e.opened = append(e.opened, url)
	e.mu.Unlock()
	if e.Opener != nil {
		return e.Opener(ctx, url)
	}
	return nil
}

// Opened returns every URL passed to OpenURL.
func (e *Env) Opened() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.opened...)
}
