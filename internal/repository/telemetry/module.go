package telemetry

import "go.uber.org/fx"

// Module registers the crash-log repository with Fx.
var Module = fx.Provide(NewRepository)
