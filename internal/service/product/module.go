package product

import "go.uber.org/fx"

// Module provides the catalogue service.
var Module = fx.Module("product_service", fx.Provide(NewService))
