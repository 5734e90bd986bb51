package review

import "go.uber.org/fx"

// Module registers the review repository with Fx.
var Module = fx.Provide(NewRepository)
