package bhs

import (
	"context"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// MockChainService is a test double for ChainServiceAPI.
type MockChainService struct {
	TipFunc             func(ctx context.Context) (*ChainTip, error)
	HeadersByHeightFunc func(ctx context.Context, height, count int) ([]HeaderSummary, error)
	HeaderFunc          func(ctx context.Context, hash chainhash.Hash) (*HeaderDetail, error)
}

func (m *MockChainService) Tip(ctx context.Context) (*ChainTip, error) {
	if m.TipFunc != nil {
		return m.TipFunc(ctx)
	}
	return &ChainTip{}, nil
}

func (m *MockChainService) HeadersByHeight(ctx context.Context, height, count int) ([]HeaderSummary, error) {
	if m.HeadersByHeightFunc != nil {
		return m.HeadersByHeightFunc(ctx, height, count)
	}
	return nil, nil
}

func (m *MockChainService) Header(ctx context.Context, hash chainhash.Hash) (*HeaderDetail, error) {
	if m.HeaderFunc != nil {
		return m.HeaderFunc(ctx, hash)
	}
	return &HeaderDetail{Hash: hash}, nil
}

// MockNetworkService is a test double for NetworkServiceAPI.
type MockNetworkService struct {
	PeersFunc func(ctx context.Context) ([]Peer, error)
}

func (m *MockNetworkService) Peers(ctx context.Context) ([]Peer, error) {
	if m.PeersFunc != nil {
		return m.PeersFunc(ctx)
	}
	return nil, nil
}

// MockWebhookService is a test double for WebhookServiceAPI.
type MockWebhookService struct {
	ListFunc   func(ctx context.Context) ([]Webhook, error)
	AddFunc    func(ctx context.Context, url string) error
	DeleteFunc func(ctx context.Context, url string) error
}

func (m *MockWebhookService) List(ctx context.Context) ([]Webhook, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockWebhookService) Add(ctx context.Context, url string) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, url)
	}
	return nil
}

func (m *MockWebhookService) Delete(ctx context.Context, url string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, url)
	}
	return nil
}
