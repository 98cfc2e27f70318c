package product

import "go.uber.org/fx"

// Module registers the product routes behind the shared auth middleware.
var Module = fx.Module("http_products",
	fx.Provide(NewHandler),
	fx.Invoke(fx.Annotate(Register, fx.ParamTags(``, ``, `name:"auth"`))),
)
