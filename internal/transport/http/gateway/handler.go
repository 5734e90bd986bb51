package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/entity"
)

// Pusher sends a push notification to a single user.
type Pusher interface {
	PushToUser(ctx context.Context, userID, title, body string, data map[string]string)
}

// Alerter posts a message into the operator channel.
type Alerter interface {
	Alert(text string)
}

// ReviewStore persists and lists customer reviews.
type ReviewStore interface {
	Insert(ctx context.Context, rev *entity.Review) error
	ListRecent(ctx context.Context, limit int) ([]entity.Review, error)
}

// CrashStore clusters crash reports by fingerprint.
type CrashStore interface {
	Record(ctx context.Context, report entity.CrashLog) (*entity.CrashLog, error)
}

// OrderPlacer runs the atomic order placement procedure.
type OrderPlacer interface {
	Place(ctx context.Context, orderData, itemsData json.RawMessage) (json.RawMessage, error)
}

// BotIngress consumes Telegram updates delivered to the webhook route.
type BotIngress interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Handler is the public HTTP surface of the gateway: mobile-app endpoints,
// the Telegram ingress, static legal pages and the storage/auth proxy.
type Handler struct {
	cfg     config.Config
	pusher  Pusher
	alerter Alerter
	reviews ReviewStore
	crashes CrashStore
	placer  OrderPlacer
	bot     BotIngress
	client  *http.Client
	logger  *zap.Logger
}

type HandlerDeps struct {
	Config  config.Config
	Pusher  Pusher
	Alerter Alerter
	Reviews ReviewStore
	Crashes CrashStore
	Placer  OrderPlacer
	Bot     BotIngress
	Client  *http.Client
	Logger  *zap.Logger
}

func NewHandler(d HandlerDeps) *Handler {
	client := d.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Handler{
		cfg:     d.Config,
		pusher:  d.Pusher,
		alerter: d.Alerter,
		reviews: d.Reviews,
		crashes: d.Crashes,
		placer:  d.Placer,
		bot:     d.Bot,
		client:  client,
		logger:  d.Logger,
	}
}

// Register mounts every gateway route.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/", h.landing)
	e.GET("/privacy", h.privacy)
	e.GET("/terms", h.terms)
	e.GET("/account-deletion", h.accountDeletion)
	e.GET("/favicon.ico", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	api := e.Group("/api")
	api.POST("/bot", h.botUpdate)
	api.POST("/orders", h.placeOrder)
	api.POST("/reviews", h.submitReview)
	api.GET("/reviews", h.listReviews)
	api.POST("/remind", h.remind)
	api.POST("/log", h.recordCrash)
	api.GET("/realtime-config", h.realtimeConfig)
	api.Any("/proxy/*", h.proxy)
}

func (h *Handler) landing(c echo.Context) error {
	return c.HTML(http.StatusOK, landingPage)
}

func (h *Handler) privacy(c echo.Context) error {
	return c.HTML(http.StatusOK, privacyPage)
}

func (h *Handler) terms(c echo.Context) error {
	return c.HTML(http.StatusOK, termsPage)
}

func (h *Handler) accountDeletion(c echo.Context) error {
	return c.HTML(http.StatusOK, accountDeletionPage)
}
