package app

import (
	"time"

	"github.com/go-resty/resty/v2"

	"dappkit/internal/domain"
	"dappkit/internal/store"
)

// DefaultHTTPTimeout bounds every gateway and relay call.
const DefaultHTTPTimeout = 15 * time.Second

// OpenBackend opens the file backend under cfg.Home, sealed when a
// passphrase is configured.
func OpenBackend(cfg Config) (domain.KeyValueBackend, error) {
	var opts []store.FileOption
	if cfg.Passphrase != "" {
		opts = append(opts, store.WithPassphrase(cfg.Passphrase))
	}
	return store.NewFileBackend(cfg.Home, opts...)
}

// NewHTTPClient returns the resty client shared by the gateway and relay
// clients.
func NewHTTPClient() *resty.Client {
	return resty.New().
		SetTimeout(DefaultHTTPTimeout).
		SetHeader("Content-Type", "application/json")
}
