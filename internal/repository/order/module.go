package order

import "go.uber.org/fx"

// Module provides the order and order item store.
var Module = fx.Module("order_repository", fx.Provide(NewRepository))
