package reference

import "go.uber.org/fx"

var Module = fx.Module("reference",
	fx.Provide(NewRegistry),
)
