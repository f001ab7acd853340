package embedding

import (
	"go.uber.org/fx"
)

// FXModule provides the embedding client as the Provider interface.
var FXModule = fx.Module("embedding",
	fx.Provide(
		NewConfig,
		NewClient,
		func(c *Client) Provider { return c },
	),
)
