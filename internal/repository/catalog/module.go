package catalog

import "go.uber.org/fx"

// Module registers the catalog repository with Fx.
var Module = fx.Provide(NewRepository)
