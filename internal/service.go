package internal

import "github.com/deevus/bhs-tui/internal/bhs"

// Services holds the Block Headers Service APIs used by the views.
type Services struct {
	Chain    bhs.ChainServiceAPI
	Network  bhs.NetworkServiceAPI
	Webhooks bhs.WebhookServiceAPI
}

// NewServices creates a Services container from the given service interfaces.
func NewServices(chain bhs.ChainServiceAPI, network bhs.NetworkServiceAPI, webhooks bhs.WebhookServiceAPI) *Services {
	return &Services{
		Chain:    chain,
		Network:  network,
		Webhooks: webhooks,
	}
}

// NewRemoteServices wires all services to one authenticated client.
func NewRemoteServices(c *bhs.Client) *Services {
	return NewServices(
		bhs.NewChainService(c),
		bhs.NewNetworkService(c),
		bhs.NewWebhookService(c),
	)
}
