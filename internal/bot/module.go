package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/orderflow"
	catalogrepo "github.com/abebe-delivery/gateway/internal/repository/catalog"
	profilerepo "github.com/abebe-delivery/gateway/internal/repository/profile"
	reviewrepo "github.com/abebe-delivery/gateway/internal/repository/review"
	sessionrepo "github.com/abebe-delivery/gateway/internal/repository/session"
	telemetryrepo "github.com/abebe-delivery/gateway/internal/repository/telemetry"
	ordersvc "github.com/abebe-delivery/gateway/internal/service/order"
)

// Module wires the Telegram API client and the admin router.
var Module = fx.Options(
	fx.Provide(NewTelegramAPI),
	fx.Provide(func(
		cfg config.Config,
		api *tgbotapi.BotAPI,
		machine *orderflow.Machine,
		orders *ordersvc.Service,
		reviews *reviewrepo.Repository,
		crashes *telemetryrepo.Repository,
		catalog *catalogrepo.Repository,
		profiles *profilerepo.Repository,
		sessions *sessionrepo.Repository,
		logger *zap.Logger,
	) *Router {
		var routerAPI API
		if api != nil {
			routerAPI = api
		}
		return NewRouter(RouterDeps{
			API:      routerAPI,
			AdminID:  cfg.Telegram.AdminChatID,
			Machine:  machine,
			Orders:   orders,
			Reviews:  reviews,
			Crashes:  crashes,
			Catalog:  catalog,
			Staff:    profiles,
			Sessions: sessions,
			Logger:   logger,
		})
	}),
)
