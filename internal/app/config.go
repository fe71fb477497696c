package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"dappkit/internal/backoff"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/gateway"
	"dappkit/internal/relay"
	"dappkit/internal/resolver"
	"dappkit/internal/store"
	"dappkit/internal/transport/extension"
	"dappkit/internal/transport/mobile"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	NetworkID             domain.NetworkID
	DAppDefinitionAddress string
	Origin                string
	AppName               string
	AppVersion            string

	Home       string // profile directory, e.g. $HOME/.dappkit
	Passphrase string // seals stored values when set

	GatewayURL   string // empty picks the network default
	RelayURL     string
	ExtensionURL string // websocket bridge to the connector extension
	DeepLinkBase string

	Mobile   bool
	UseCache bool

	PollInterval time.Duration // relay poll on mobile
	TickInterval time.Duration // request resolver
	Extension    extension.Config
	Backoff      backoff.Config
}

// DefaultConfig returns a stokenet profile under home.
func DefaultConfig(home string) Config {
	return Config{
		NetworkID:    domaintypes.NetworkStokenet,
		AppName:      "dappctl",
		AppVersion:   gateway.ClientVersion,
		Home:         home,
		RelayURL:     relay.DefaultURL,
		DeepLinkBase: mobile.DefaultDeepLinkBase,
		PollInterval: mobile.DefaultPollInterval,
		TickInterval: resolver.DefaultTickInterval,
		Extension: extension.Config{
			MissingExtensionTimeout: extension.DefaultMissingExtensionTimeout,
			StatusTimeout:           extension.DefaultStatusTimeout,
			CancelTimeout:           extension.DefaultCancelTimeout,
		},
		Backoff: backoff.DefaultConfig(),
	}
}

// DefaultHome is $HOME/.dappkit.
func DefaultHome() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".dappkit"), nil
}

type fileConfig struct {
	NetworkID             int     `toml:"network_id"`
	DAppDefinitionAddress string  `toml:"dapp_definition_address"`
	Origin                string  `toml:"origin"`
	AppName               string  `toml:"app_name"`
	AppVersion            string  `toml:"app_version"`
	Home                  string  `toml:"home"`
	Passphrase            string  `toml:"passphrase"`
	GatewayURL            string  `toml:"gateway_url"`
	RelayURL              string  `toml:"relay_url"`
	ExtensionURL          string  `toml:"extension_url"`
	DeepLinkBase          string  `toml:"deep_link_base"`
	Mobile                bool    `toml:"mobile"`
	UseCache              bool    `toml:"use_cache"`
	PollInterval          string  `toml:"poll_interval"`
	TickInterval          string  `toml:"tick_interval"`
	MissingExtension      string  `toml:"missing_extension_timeout"`
	StatusTimeout         string  `toml:"status_timeout"`
	CancelTimeout         string  `toml:"cancel_timeout"`
	BackoffMultiplier     float64 `toml:"backoff_multiplier"`
	BackoffInterval       string  `toml:"backoff_interval"`
	BackoffMaxDelay       string  `toml:"backoff_max_delay"`
}

// LoadConfig reads a TOML profile over base. Keys absent from the file keep
// base's value.
func LoadConfig(path string, base Config) (Config, error) {
	cfg := base

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	str := func(key, v string, dst *string) {
		if meta.IsDefined(key) {
			*dst = strings.TrimSpace(v)
		}
	}
	str("dapp_definition_address", raw.DAppDefinitionAddress, &cfg.DAppDefinitionAddress)
	str("origin", raw.Origin, &cfg.Origin)
	str("app_name", raw.AppName, &cfg.AppName)
	str("app_version", raw.AppVersion, &cfg.AppVersion)
	str("home", raw.Home, &cfg.Home)
	str("passphrase", raw.Passphrase, &cfg.Passphrase)
	str("gateway_url", raw.GatewayURL, &cfg.GatewayURL)
	str("relay_url", raw.RelayURL, &cfg.RelayURL)
	str("extension_url", raw.ExtensionURL, &cfg.ExtensionURL)
	str("deep_link_base", raw.DeepLinkBase, &cfg.DeepLinkBase)

	if meta.IsDefined("network_id") {
		cfg.NetworkID = domain.NetworkID(raw.NetworkID)
	}
	if meta.IsDefined("mobile") {
		cfg.Mobile = raw.Mobile
	}
	if meta.IsDefined("use_cache") {
		cfg.UseCache = raw.UseCache
	}
	if meta.IsDefined("backoff_multiplier") {
		cfg.Backoff.Multiplier = raw.BackoffMultiplier
	}

	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"tick_interval", raw.TickInterval, &cfg.TickInterval},
		{"missing_extension_timeout", raw.MissingExtension, &cfg.Extension.MissingExtensionTimeout},
		{"status_timeout", raw.StatusTimeout, &cfg.Extension.StatusTimeout},
		{"cancel_timeout", raw.CancelTimeout, &cfg.Extension.CancelTimeout},
		{"backoff_interval", raw.BackoffInterval, &cfg.Backoff.Interval},
		{"backoff_max_delay", raw.BackoffMaxDelay, &cfg.Backoff.MaxDelay},
	} {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.NetworkID <= 0:
		return errors.New("network_id must be positive")
	case c.DAppDefinitionAddress == "":
		return errors.New("dapp_definition_address is required")
	case c.Origin == "":
		return errors.New("origin is required")
	case c.Home == "":
		return errors.New("home is required")
	case c.RelayURL == "" && c.Mobile:
		return errors.New("relay_url is required on mobile")
	case c.Backoff.MaxDelay <= 0:
		return errors.New("backoff_max_delay must be positive")
	}
	if err := c.Backoff.Validate(); err != nil {
		return fmt.Errorf("backoff: %w", err)
	}
	if c.Passphrase != "" {
		if err := store.CheckPassphrase(c.Passphrase); err != nil {
			return fmt.Errorf("passphrase: %w", err)
		}
	}
	if c.GatewayURL == "" {
		if _, ok := gateway.DefaultURL(c.NetworkID); !ok {
			return fmt.Errorf("gateway_url is required for network %d", c.NetworkID)
		}
	}
	return nil
}

// StoragePrefix is the root key all partitions of this dApp live under.
func (c Config) StoragePrefix() string {
	return fmt.Sprintf("rdt:%s:%d", c.DAppDefinitionAddress, c.NetworkID)
}
