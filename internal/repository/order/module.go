package order

import (
	"go.uber.org/fx"

	"github.com/abebe-delivery/gateway/internal/orderflow"
)

// Module provides the order repository to Fx, both as the concrete type and
// as the state machine's store contract.
var Module = fx.Options(
	fx.Provide(NewRepository),
	fx.Provide(func(r *Repository) orderflow.Store { return r }),
)
