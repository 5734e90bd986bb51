package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/config"
)

// API is the slice of the Telegram client the router and notifiers use.
// *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NewTelegramAPI authenticates against the Bot API. It returns nil when the
// bot is disabled so dependents can degrade instead of failing startup.
func NewTelegramAPI(cfg config.Config, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	if !cfg.Telegram.Enabled {
		logger.Warn("telegram bot disabled")
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	logger.Info("telegram bot authenticated", zap.String("username", api.Self.UserName))
	return api, nil
}
