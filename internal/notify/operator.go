package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/entity"
	"github.com/abebe-delivery/gateway/internal/orderflow"
)

// sendAttempts and sendRetryDelay govern delivery to the operator channel.
const sendAttempts = 3

var sendRetryDelay = 2 * time.Second

// telegramSender is the slice of the bot API the operator notifier uses.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Operator posts order cards and alerts into the admin Telegram chat.
// Everything here is best effort: a Telegram outage must never fail the
// pipeline that triggered the notification.
type Operator struct {
	tg      telegramSender
	chatID  int64
	client  *http.Client
	logger  *zap.Logger
	enabled bool
}

func NewOperator(cfg config.Config, api *tgbotapi.BotAPI, logger *zap.Logger) *Operator {
	op := &Operator{
		chatID: cfg.Telegram.AdminChatID,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
	if api != nil && cfg.Telegram.Enabled {
		op.tg = api
		op.enabled = true
	}
	return op
}

// NotifyNewOrder posts the order card into the admin chat. When a payment
// proof exists the card is sent as a photo: bytes first, then by URL, then
// as plain text if neither works.
func (o *Operator) NotifyNewOrder(ctx context.Context, order *entity.Order, items []entity.OrderItem, customer *entity.Profile) {
	if !o.enabled {
		return
	}

	caption := orderCard(order, items, customer)
	keyboard := KeyboardForStatus(order)

	if order.PaymentProofURL != "" {
		if data, err := fetchValidatedImage(ctx, o.client, order.PaymentProofURL); err == nil {
			photo := tgbotapi.NewPhoto(o.chatID, tgbotapi.FileBytes{Name: "payment_proof.jpg", Bytes: data})
			photo.Caption = caption
			photo.ReplyMarkup = keyboard
			if o.send(photo) {
				return
			}
		} else {
			o.logger.Warn("payment proof download failed, falling back to URL",
				zap.Int64("order_id", order.ID), zap.Error(err))
		}

		photo := tgbotapi.NewPhoto(o.chatID, tgbotapi.FileURL(order.PaymentProofURL))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard
		if o.send(photo) {
			return
		}
	}

	msg := tgbotapi.NewMessage(o.chatID, caption)
	msg.ReplyMarkup = keyboard
	o.send(msg)
}

// NotifyCancellation tells the operator a customer pulled an order.
func (o *Operator) NotifyCancellation(order *entity.Order) {
	if !o.enabled {
		return
	}
	text := fmt.Sprintf("🚫 Order #%s was cancelled by the customer.", order.DisplayID())
	o.send(tgbotapi.NewMessage(o.chatID, text))
}

// Alert posts a free-form operational message into the admin chat.
func (o *Operator) Alert(text string) {
	if !o.enabled {
		return
	}
	o.send(tgbotapi.NewMessage(o.chatID, text))
}

// send tries up to sendAttempts deliveries before giving up.
func (o *Operator) send(c tgbotapi.Chattable) bool {
	var lastErr error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(sendRetryDelay)
		}
		if _, err := o.tg.Send(c); err == nil {
			return true
		} else {
			lastErr = err
		}
	}
	o.logger.Error("operator notification failed", zap.Error(lastErr))
	return false
}

// orderCard renders the admin-facing summary of one order.
func orderCard(order *entity.Order, items []entity.OrderItem, customer *entity.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 New Order #%s\n\n", order.DisplayID())

	if customer != nil {
		fmt.Fprintf(&b, "👤 %s\n📞 %s\n", customer.FullName, customer.PhoneNumber)
		if customer.Address != "" {
			fmt.Fprintf(&b, "📍 %s\n", customer.Address)
		}
		b.WriteString("\n")
	}

	if len(items) > 0 {
		b.WriteString("🛒 Items:\n")
		for _, item := range items {
			fmt.Fprintf(&b, "  • %dx %s\n", item.Quantity, item.Title)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "💰 Total: %s ETB\n", order.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "📦 Status: %s", order.Status)
	if order.DeliveryLoc != nil {
		fmt.Fprintf(&b, "\n🗺 https://maps.google.com/?q=%f,%f", order.DeliveryLoc.Lat, order.DeliveryLoc.Lng)
	}
	return b.String()
}

// KeyboardForStatus returns the inline actions valid for the order's current
// state. Shared with the bot so edited cards stay consistent.
func KeyboardForStatus(order *entity.Order) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	switch orderflow.Status(order.Status) {
	case orderflow.StatusPlaced:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Accept", fmt.Sprintf("accept_%d", order.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("reject_%d", order.ID)),
		))
	case orderflow.StatusAccepted:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👨‍🍳 Start Preparing", fmt.Sprintf("status_%d_preparing", order.ID)),
		))
	case orderflow.StatusPreparing:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍 Ready for Pickup", fmt.Sprintf("status_%d_ready", order.ID)),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔍 Details", fmt.Sprintf("view_order_%d", order.ID)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
