// Package mock provides test doubles for interpret interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/fwojciec/interpret"
)

// Interface compliance check.
var _ interpret.Client = (*Client)(nil)

// Client is a test double for interpret.Client.
// Set StreamFn before calling Stream.
type Client struct {
	StreamFn func(ctx context.Context, req interpret.Request) (interpret.Stream, error)
}

// Stream delegates to StreamFn.
func (c *Client) Stream(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
	return c.StreamFn(ctx, req)
}
