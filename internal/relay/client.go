package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// Methods understood by the relay endpoint.
const (
	MethodGetResponses = "getResponses"
	MethodSendResponse = "sendResponse"
)

// DefaultURL is the public relay endpoint.
const DefaultURL = "https://radix-connect-relay.radixdlt.com/api/v1"

// Request is the relay request body.
type Request struct {
	Method    string `json:"method"`
	SessionID string `json:"sessionId"`
	PublicKey string `json:"publicKey,omitempty"`
	Data      string `json:"data,omitempty"`
}

// Client is the relay HTTP client.
type Client struct {
	httpClient *resty.Client
	url        string
	log        zerolog.Logger
}

// NewClient returns a Client posting to url. httpClient may be nil.
func NewClient(httpClient *resty.Client, url string, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = resty.New()
	}
	return &Client{
		httpClient: httpClient.SetHeader("Content-Type", "application/json"),
		url:        url,
		log:        logger.With().Str("component", "relay").Logger(),
	}
}

var _ domain.RelayClient = (*Client)(nil)

// GetResponses returns the responses queued for sessionID.
func (c *Client) GetResponses(ctx context.Context, sessionID string) ([]domain.EncryptedResponse, error) {
	res, err := c.post(ctx, Request{Method: MethodGetResponses, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	out, err := decodeResponses(res.Body())
	if err != nil {
		return nil, fmt.Errorf("relay %s: decode: %w", MethodGetResponses, err)
	}
	if len(out) > 0 {
		c.log.Debug().Str("session_id", sessionID).Int("count", len(out)).Msg("relay responses")
	}
	return out, nil
}

// SendResponse queues an encrypted response on sessionID.
func (c *Client) SendResponse(ctx context.Context, sessionID string, r domain.EncryptedResponse) error {
	_, err := c.post(ctx, Request{
		Method:    MethodSendResponse,
		SessionID: sessionID,
		PublicKey: r.PublicKey,
		Data:      r.Data,
	})
	return err
}

func (c *Client) post(ctx context.Context, body Request) (*resty.Response, error) {
	res, err := c.httpClient.R().SetContext(ctx).SetBody(body).Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("relay %s: %w", body.Method, err)
	}
	if res.StatusCode()/100 != 2 {
		return nil, fmt.Errorf("relay %s %s: %s", body.Method, c.url, http.StatusText(res.StatusCode()))
	}
	return res, nil
}

// decodeResponses accepts either a bare array or {"data": [...]}. An empty
// body is no responses.
func decodeResponses(b []byte) ([]domaintypes.EncryptedResponse, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}
	var out []domaintypes.EncryptedResponse
	if b[0] == '[' {
		return out, json.Unmarshal(b, &out)
	}
	var wrapped struct {
		Data []domaintypes.EncryptedResponse `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Data, nil
}
