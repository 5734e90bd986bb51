package profile

import "go.uber.org/fx"

// Module registers the profile repository with Fx.
var Module = fx.Provide(NewRepository)
