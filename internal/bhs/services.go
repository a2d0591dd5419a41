package bhs

import (
	"context"
	"net/url"
	"strconv"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// ChainServiceAPI reads chain state.
type ChainServiceAPI interface {
	Tip(ctx context.Context) (*ChainTip, error)
	HeadersByHeight(ctx context.Context, height, count int) ([]HeaderSummary, error)
	Header(ctx context.Context, hash chainhash.Hash) (*HeaderDetail, error)
}

// NetworkServiceAPI reads the peer table.
type NetworkServiceAPI interface {
	Peers(ctx context.Context) ([]Peer, error)
}

// WebhookServiceAPI lists and mutates webhook subscriptions.
type WebhookServiceAPI interface {
	List(ctx context.Context) ([]Webhook, error)
	Add(ctx context.Context, url string) error
	Delete(ctx context.Context, url string) error
}

// ChainService implements ChainServiceAPI over a Client.
type ChainService struct {
	client *Client
}

// NewChainService creates a ChainService.
func NewChainService(c *Client) *ChainService {
	return &ChainService{client: c}
}

// Tip fetches the longest chain tip.
func (s *ChainService) Tip(ctx context.Context) (*ChainTip, error) {
	var tip ChainTip
	if err := s.client.Get(ctx, "/chain/tip/longest", nil, &tip); err != nil {
		return nil, err
	}
	return &tip, nil
}

// HeadersByHeight fetches count headers starting at height.
func (s *ChainService) HeadersByHeight(ctx context.Context, height, count int) ([]HeaderSummary, error) {
	q := url.Values{}
	q.Set("height", strconv.Itoa(height))
	q.Set("count", strconv.Itoa(count))
	var headers []HeaderSummary
	if err := s.client.Get(ctx, "/chain/header/byHeight", q, &headers); err != nil {
		return nil, err
	}
	return headers, nil
}

// Header fetches every field of the header with the given hash.
func (s *ChainService) Header(ctx context.Context, hash chainhash.Hash) (*HeaderDetail, error) {
	var detail HeaderDetail
	if err := s.client.Get(ctx, "/chain/header/"+url.PathEscape(hash.String()), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// NetworkService implements NetworkServiceAPI over a Client.
type NetworkService struct {
	client *Client
}

// NewNetworkService creates a NetworkService.
func NewNetworkService(c *Client) *NetworkService {
	return &NetworkService{client: c}
}

// Peers fetches the current peer list.
func (s *NetworkService) Peers(ctx context.Context) ([]Peer, error) {
	var peers []Peer
	if err := s.client.Get(ctx, "/network/peer", nil, &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

// WebhookService implements WebhookServiceAPI over a Client.
type WebhookService struct {
	client *Client
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(c *Client) *WebhookService {
	return &WebhookService{client: c}
}

// List fetches all registered webhooks.
func (s *WebhookService) List(ctx context.Context) ([]Webhook, error) {
	var hooks []Webhook
	if err := s.client.Get(ctx, "/webhook", nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

// Add registers a webhook URL.
func (s *WebhookService) Add(ctx context.Context, hookURL string) error {
	return s.client.Post(ctx, "/webhook", map[string]string{"url": hookURL}, nil)
}

// Delete removes the webhook registered under hookURL.
func (s *WebhookService) Delete(ctx context.Context, hookURL string) error {
	q := url.Values{}
	q.Set("url", hookURL)
	return s.client.Delete(ctx, "/webhook", q)
}

var (
	_ ChainServiceAPI   = (*ChainService)(nil)
	_ NetworkServiceAPI = (*NetworkService)(nil)
	_ WebhookServiceAPI = (*WebhookService)(nil)
	_ ChainServiceAPI   = (*MockChainService)(nil)
	_ NetworkServiceAPI = (*MockNetworkService)(nil)
	_ WebhookServiceAPI = (*MockWebhookService)(nil)
)
