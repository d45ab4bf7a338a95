package chaindata

import "errors"

var (
	// ErrProviderRequest indicates the provider returned a non-success
	// HTTP status.
	ErrProviderRequest = errors.New("chain data provider request failed")

	// ErrNoClientForChain indicates no provider is registered for the
	// requested chain id.
	ErrNoClientForChain = errors.New("no chain data client registered for chain")
)
