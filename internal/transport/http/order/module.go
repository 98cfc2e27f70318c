package order

import "go.uber.org/fx"

// Module registers the order routes behind the shared auth middleware.
var Module = fx.Module("http_orders",
	fx.Provide(NewHandler),
	fx.Invoke(fx.Annotate(Register, fx.ParamTags(``, ``, `name:"auth"`))),
)
