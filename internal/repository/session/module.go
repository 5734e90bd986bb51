package session

import "go.uber.org/fx"

// Module registers the bot-session repository with Fx.
var Module = fx.Provide(NewRepository)
