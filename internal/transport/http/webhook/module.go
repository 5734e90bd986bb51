package webhook

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/dedup"
	"github.com/abebe-delivery/gateway/internal/notify"
	orderrepo "github.com/abebe-delivery/gateway/internal/repository/order"
	profilerepo "github.com/abebe-delivery/gateway/internal/repository/profile"
	ordersvc "github.com/abebe-delivery/gateway/internal/service/order"
)

// Module wires the webhook handler and its route registration.
var Module = fx.Options(
	fx.Provide(func(
		caches *dedup.Caches,
		dispatcher *notify.Dispatcher,
		operator *notify.Operator,
		orders *orderrepo.Repository,
		profiles *profilerepo.Repository,
		svc *ordersvc.Service,
		logger *zap.Logger,
	) *Handler {
		return NewHandler(caches, dispatcher, operator, orders, profiles, svc, logger)
	}),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
