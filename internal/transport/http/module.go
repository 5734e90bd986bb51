package http

import (
	"go.uber.org/fx"

	"github.com/abebe-delivery/gateway/internal/transport/http/gateway"
	"github.com/abebe-delivery/gateway/internal/transport/http/webhook"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	gateway.Module,
	webhook.Module,
)
