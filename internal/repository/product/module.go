package product

import "go.uber.org/fx"

var Module = fx.Module("product_repository", fx.Provide(NewRepository))
