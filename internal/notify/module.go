package notify

import (
	"go.uber.org/fx"

	"github.com/abebe-delivery/gateway/internal/repository/profile"
)

// Module wires the push sender, the audience dispatcher and the operator
// Telegram notifier.
var Module = fx.Options(
	fx.Provide(NewSender),
	fx.Provide(func(r *profile.Repository) Directory { return r }),
	fx.Provide(NewDispatcher),
	fx.Provide(NewOperator),
)
