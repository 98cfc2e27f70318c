package order

import "go.uber.org/fx"

// Module provides draft creation, lookup and conversion.
var Module = fx.Module("order_service", fx.Provide(NewService))
