package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/notify"
	ordersvc "github.com/abebe-delivery/gateway/internal/service/order"
	"github.com/abebe-delivery/gateway/pkg/errorbank"
)

// Machine is the subset of the order state machine the bot drives.
type Machine interface {
	Accept(ctx context.Context, orderID int64, estimatedMinutes int) (*entity.Order, error)
	Reject(ctx context.Context, orderID int64, reason string) (*entity.Order, error)
	StartPreparing(ctx context.Context, orderID int64) (*entity.Order, error)
	MarkReady(ctx context.Context, orderID int64) (*entity.Order, error)
}

// OrderOps covers the order reads the bot needs.
type OrderOps interface {
	Queue(ctx context.Context) ([]entity.Order, error)
	Details(ctx context.Context, id int64) (*entity.Order, []entity.OrderItem, error)
	Stats(ctx context.Context) (*ordersvc.StatsReport, error)
}

// ReviewLister lists recent customer reviews.
type ReviewLister interface {
	ListRecent(ctx context.Context, limit int) ([]entity.Review, error)
}

// CrashLister lists recent crash clusters.
type CrashLister interface {
	ListRecent(ctx context.Context, limit int) ([]entity.CrashLog, error)
}

// Staff lists profiles by role for the delivery staff roster.
type Staff interface {
	ListByRole(ctx context.Context, role string) ([]entity.Profile, error)
}

// Catalog covers the menu and settings operations exposed to the admin.
type Catalog interface {
	ListMenu(ctx context.Context) ([]entity.MenuItem, error)
	AddMenuItem(ctx context.Context, item *entity.MenuItem) error
	ListPaymentMethods(ctx context.Context) ([]entity.PaymentMethod, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Router is the admin control surface over Telegram. Only the configured
// admin chat may drive it; everyone else gets a polite refusal.
type Router struct {
	api      API
	adminID  int64
	machine  Machine
	orders   OrderOps
	reviews  ReviewLister
	crashes  CrashLister
	catalog  Catalog
	staff    Staff
	sessions SessionStore
	logger   *zap.Logger
}

type RouterDeps struct {
	API      API
	AdminID  int64
	Machine  Machine
	Orders   OrderOps
	Reviews  ReviewLister
	Crashes  CrashLister
	Catalog  Catalog
	Staff    Staff
	Sessions SessionStore
	Logger   *zap.Logger
}

func NewRouter(d RouterDeps) *Router {
	return &Router{
		api:      d.API,
		adminID:  d.AdminID,
		machine:  d.Machine,
		orders:   d.Orders,
		reviews:  d.Reviews,
		crashes:  d.Crashes,
		catalog:  d.Catalog,
		staff:    d.Staff,
		sessions: d.Sessions,
		logger:   d.Logger,
	}
}

// HandleUpdate processes one Telegram update. Errors never propagate to the
// webhook response; Telegram retries aggressively and a retried update is
// worse than a lost reply.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if r.api == nil {
		return
	}

	switch {
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		r.handleMessage(ctx, update.Message)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != r.adminID {
		r.reply(msg.Chat.ID, "⛔ This bot is for authorized staff only.")
		return
	}

	if msg.IsCommand() {
		r.handleCommand(ctx, msg)
		return
	}

	key := sessionKey(msg.From.ID, msg.Chat.ID)
	state, err := r.loadForm(ctx, key)
	if err != nil {
		r.logger.Error("session load failed", zap.String("key", key), zap.Error(err))
		return
	}
	if state == nil {
		r.reply(msg.Chat.ID, "Use /help to see what I can do.")
		return
	}
	r.continueForm(ctx, key, state, msg)
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	key := sessionKey(msg.From.ID, msg.Chat.ID)

	switch msg.Command() {
	case "start", "help":
		r.reply(msg.Chat.ID, helpText)
	case "queue":
		r.sendQueue(ctx, msg.Chat.ID)
	case "stats":
		r.sendStats(ctx, msg.Chat.ID)
	case "reviews":
		r.sendReviews(ctx, msg.Chat.ID)
	case "getlogs":
		r.sendCrashLogs(ctx, msg.Chat.ID)
	case "menu":
		r.sendMenu(ctx, msg.Chat.ID)
	case "payments":
		r.sendPayments(ctx, msg.Chat.ID)
	case "drivers":
		r.sendDrivers(ctx, msg.Chat.ID)
	case "additem":
		if err := r.saveForm(ctx, key, formState{Action: actionItemTitle}); err != nil {
			r.logger.Error("session save failed", zap.Error(err))
			return
		}
		r.reply(msg.Chat.ID, "🍽 Adding a menu item. What's the item name?")
	case "setfee":
		if err := r.saveForm(ctx, key, formState{Action: actionSetFee}); err != nil {
			r.logger.Error("session save failed", zap.Error(err))
			return
		}
		r.reply(msg.Chat.ID, "💵 Send the new delivery fee in ETB.")
	case "cancel":
		r.clearForm(ctx, key)
		r.reply(msg.Chat.ID, "Okay, cancelled.")
	default:
		r.reply(msg.Chat.ID, "Unknown command. Use /help.")
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the client stops its spinner.
	if _, err := r.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.logger.Warn("callback ack failed", zap.Error(err))
	}

	if cb.From == nil || cb.From.ID != r.adminID || cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	key := sessionKey(cb.From.ID, chatID)

	switch {
	case strings.HasPrefix(cb.Data, "accept_"):
		id, ok := parseID(cb.Data, "accept_")
		if !ok {
			return
		}
		if err := r.saveForm(ctx, key, formState{Action: actionAcceptETA, OrderID: id}); err != nil {
			r.logger.Error("session save failed", zap.Error(err))
			return
		}
		r.reply(chatID, "⏱ Reply with the estimated preparation time in minutes.")

	case strings.HasPrefix(cb.Data, "reject_"):
		id, ok := parseID(cb.Data, "reject_")
		if !ok {
			return
		}
		if err := r.saveForm(ctx, key, formState{Action: actionRejectReason, OrderID: id}); err != nil {
			r.logger.Error("session save failed", zap.Error(err))
			return
		}
		r.reply(chatID, "✍️ Reply with the rejection reason shown to the customer.")

	case strings.HasPrefix(cb.Data, "status_"):
		r.advanceStatus(ctx, chatID, cb.Data)

	case strings.HasPrefix(cb.Data, "view_order_"):
		id, ok := parseID(cb.Data, "view_order_")
		if !ok {
			return
		}
		r.sendOrderDetails(ctx, chatID, id)

	case cb.Data == "admin_queue":
		r.sendQueue(ctx, chatID)
	}
}

// advanceStatus handles the single-tap transitions that need no extra input.
func (r *Router) advanceStatus(ctx context.Context, chatID int64, data string) {
	rest := strings.TrimPrefix(data, "status_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return
	}

	var order *entity.Order
	switch parts[1] {
	case "preparing":
		order, err = r.machine.StartPreparing(ctx, id)
	case "ready":
		order, err = r.machine.MarkReady(ctx, id)
	default:
		return
	}
	if err != nil {
		r.replyMachineError(chatID, err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "✅ Order #"+order.DisplayID()+" is now "+order.Status+".")
	msg.ReplyMarkup = notify.KeyboardForStatus(order)
	r.send(msg)
}

func (r *Router) continueForm(ctx context.Context, key string, state *formState, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch state.Action {
	case actionAcceptETA:
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes <= 0 {
			r.reply(chatID, "Please send a positive number of minutes, or /cancel.")
			return
		}
		order, err := r.machine.Accept(ctx, state.OrderID, minutes)
		if err != nil {
			r.clearForm(ctx, key)
			r.replyMachineError(chatID, err)
			return
		}
		r.clearForm(ctx, key)
		r.reply(chatID, "✅ Order #"+order.DisplayID()+" accepted. ETA "+strconv.Itoa(minutes)+" min.")

	case actionRejectReason:
		if text == "" {
			r.reply(chatID, "The reason can't be empty. Try again, or /cancel.")
			return
		}
		order, err := r.machine.Reject(ctx, state.OrderID, text)
		if err != nil {
			r.clearForm(ctx, key)
			r.replyMachineError(chatID, err)
			return
		}
		r.clearForm(ctx, key)
		r.reply(chatID, "🚫 Order #"+order.DisplayID()+" rejected.")

	case actionItemTitle:
		if text == "" {
			r.reply(chatID, "Name can't be empty. Try again, or /cancel.")
			return
		}
		state.Draft.Title = text
		state.Action = actionItemPrice
		if err := r.saveForm(ctx, key, *state); err != nil {
			r.logger.Error("session save failed", zap.Error(err))
			return
		}
		r.reply(chatID, "💰 Price in ETB?")

	case actionItemPrice:
		price, err := decimalString(text)
		if err != nil {
			r.reply(chatID, "That doesn't look like a price. Try again, or /cancel.")
			return
		}
		state.Draft.Price = price
		state.Action = actionItemCategory
		if err := r.saveForm(ctx, key, *state); err != nil {
			r.logger.Error("session save failed", zap.Error(err))
			return
		}
		r.reply(chatID, "🗂 Category? (e.g. Burgers, Drinks)")

	case actionItemCategory:
		if text == "" {
			r.reply(chatID, "Category can't be empty. Try again, or /cancel.")
			return
		}
		item, err := menuItemFromDraft(state.Draft, text)
		if err != nil {
			r.clearForm(ctx, key)
			r.reply(chatID, "Something went wrong with the draft; start over with /additem.")
			return
		}
		if err := r.catalog.AddMenuItem(ctx, item); err != nil {
			r.clearForm(ctx, key)
			r.logger.Error("menu insert failed", zap.Error(err))
			r.reply(chatID, "❌ Could not save the item. Try again later.")
			return
		}
		r.clearForm(ctx, key)
		r.reply(chatID, "✅ Added "+item.Title+" ("+item.Price.StringFixed(2)+" ETB) to "+item.Category+".")

	case actionSetFee:
		fee, err := decimalString(text)
		if err != nil {
			r.reply(chatID, "That doesn't look like an amount. Try again, or /cancel.")
			return
		}
		if err := r.catalog.PutSetting(ctx, "delivery_fee", fee); err != nil {
			r.clearForm(ctx, key)
			r.logger.Error("setting update failed", zap.Error(err))
			r.reply(chatID, "❌ Could not update the fee. Try again later.")
			return
		}
		r.clearForm(ctx, key)
		r.reply(chatID, "✅ Delivery fee set to "+fee+" ETB.")

	default:
		r.clearForm(ctx, key)
		r.reply(chatID, "Use /help to see what I can do.")
	}
}

// replyMachineError turns state machine failures into operator-friendly
// text; conflicts are routine when two admins race on the same order.
func (r *Router) replyMachineError(chatID int64, err error) {
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind() {
		case errorbank.KindConflict:
			r.reply(chatID, "⚠️ Order state changed; it may already be handled by another admin.")
			return
		case errorbank.KindBadRequest:
			r.reply(chatID, "⚠️ "+appErr.Message())
			return
		case errorbank.KindNotFound:
			r.reply(chatID, "⚠️ That order no longer exists.")
			return
		}
	}
	r.logger.Error("order action failed", zap.Error(err))
	r.reply(chatID, "❌ Something went wrong. Try again in a moment.")
}

func (r *Router) reply(chatID int64, text string) {
	r.send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) send(c tgbotapi.Chattable) {
	if _, err := r.api.Send(c); err != nil {
		r.logger.Error("telegram send failed", zap.Error(err))
	}
}

func parseID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id, err == nil
}

const helpText = `🤖 Abebe Delivery Admin

/queue — pending orders
/stats — today's and this week's numbers
/menu — list menu items
/additem — add a menu item
/payments — payment destinations
/drivers — delivery staff roster
/setfee — change the delivery fee
/reviews — latest customer reviews
/getlogs — recent app crash clusters
/cancel — abort the current form`
