package orderflow

import "go.uber.org/fx"

// Module provides the order state machine to Fx.
var Module = fx.Provide(NewMachine)
