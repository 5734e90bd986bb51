package gateway

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/bot"
	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/notify"
	reviewrepo "github.com/abebe-delivery/gateway/internal/repository/review"
	telemetryrepo "github.com/abebe-delivery/gateway/internal/repository/telemetry"
	ordersvc "github.com/abebe-delivery/gateway/internal/service/order"
)

// Module wires the gateway handler and its route registration.
var Module = fx.Options(
	fx.Provide(func(
		cfg config.Config,
		dispatcher *notify.Dispatcher,
		operator *notify.Operator,
		reviews *reviewrepo.Repository,
		crashes *telemetryrepo.Repository,
		svc *ordersvc.Service,
		router *bot.Router,
		logger *zap.Logger,
	) *Handler {
		return NewHandler(HandlerDeps{
			Config:  cfg,
			Pusher:  dispatcher,
			Alerter: operator,
			Reviews: reviews,
			Crashes: crashes,
			Placer:  svc,
			Bot:     router,
			Client:  &http.Client{Timeout: 30 * time.Second},
			Logger:  logger,
		})
	}),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
