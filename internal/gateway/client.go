package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

const (
	ClientName    = "dappkit"
	ClientVersion = "2.2.0"

	pathTransactionStatus = "/transaction/status"
	pathSubintentStatus   = "/transaction/subintent-status"
)

// DefaultURL returns the public gateway for a well-known network.
func DefaultURL(network domain.NetworkID) (string, bool) {
	switch network {
	case domaintypes.NetworkMainnet:
		return "https://mainnet.radixdlt.com", true
	case domaintypes.NetworkStokenet:
		return "https://stokenet.radixdlt.com", true
	}
	return "", false
}

// AppInfo identifies the calling application in request headers.
type AppInfo struct {
	Name                  string
	Version               string
	DAppDefinitionAddress string
	Origin                string
}

func (a AppInfo) headers() map[string]string {
	h := map[string]string{
		"RDX-Client-Name":    ClientName,
		"RDX-Client-Version": ClientVersion,
	}
	set := func(k, v string) {
		if v != "" {
			h[k] = v
		}
	}
	set("RDX-App-Name", a.Name)
	set("RDX-App-Version", a.Version)
	set("RDX-App-Dapp-Definition", a.DAppDefinitionAddress)
	set("RDX-App-Origin", a.Origin)
	return h
}

// Client is the gateway status API client.
type Client struct {
	httpClient *resty.Client
	headers    map[string]string
	url        string
	log        zerolog.Logger
}

// errorResponse is the gateway's error body.
type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewClient returns a Client for baseURL. httpClient may be nil; it may be
// shared, since the app headers go on each gateway request only.
func NewClient(httpClient *resty.Client, baseURL string, app AppInfo, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = resty.New()
	}
	headers := app.headers()
	headers["Content-Type"] = "application/json"
	return &Client{
		httpClient: httpClient,
		headers:    headers,
		url:        strings.TrimRight(baseURL, "/"),
		log:        logger.With().Str("component", "gateway").Logger(),
	}
}

// TransactionStatus fetches the status of a submitted transaction intent.
func (c *Client) TransactionStatus(ctx context.Context, intentHash string) (domaintypes.TransactionStatusResponse, error) {
	var (
		result domaintypes.TransactionStatusResponse
		apiErr errorResponse
	)
	res, err := c.httpClient.
		R().
		SetContext(ctx).
		SetHeaders(c.headers).
		SetBody(map[string]string{"intent_hash": intentHash}).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.url + pathTransactionStatus)
	if err != nil {
		return result, fmt.Errorf("gateway %s: %w", pathTransactionStatus, err)
	}
	if res.StatusCode() != http.StatusOK {
		return result, statusError(pathTransactionStatus, res.StatusCode(), apiErr)
	}
	c.log.Debug().Str("intent_hash", intentHash).Str("status", string(result.Status)).Msg("transaction status")
	return result, nil
}

// SubintentStatus fetches the status of a subintent.
func (c *Client) SubintentStatus(ctx context.Context, subintentHash string) (domaintypes.SubintentStatusResponse, error) {
	var (
		result domaintypes.SubintentStatusResponse
		apiErr errorResponse
	)
	res, err := c.httpClient.
		R().
		SetContext(ctx).
		SetHeaders(c.headers).
		SetBody(map[string]string{"subintent_hash": subintentHash}).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.url + pathSubintentStatus)
	if err != nil {
		return result, fmt.Errorf("gateway %s: %w", pathSubintentStatus, err)
	}
	if res.StatusCode() != http.StatusOK {
		return result, statusError(pathSubintentStatus, res.StatusCode(), apiErr)
	}
	c.log.Debug().Str("subintent_hash", subintentHash).Str("status", string(result.SubintentStatus)).Msg("subintent status")
	return result, nil
}

func statusError(path string, code int, apiErr errorResponse) error {
	if apiErr.Message != "" {
		return fmt.Errorf("gateway %s: status %d: %s", path, code, apiErr.Message)
	}
	return fmt.Errorf("gateway %s: status %d", path, code)
}

// Compile-time assertion that Client implements domain.GatewayClient.
var _ domain.GatewayClient = (*Client)(nil)
