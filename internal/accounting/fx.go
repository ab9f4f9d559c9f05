package accounting

import "go.uber.org/fx"

var Module = fx.Module("accounting",
	fx.Provide(NewClient),
)
